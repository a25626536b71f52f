// Command board là client dòng lệnh của order board: theo dõi batch của một ngày qua SSE và toggle unit.
//
//	t <groupKey> <orderId> <lineItemId> <unitIndex>   toggle một unit
//	d <YYYY-MM-DD>                                    đổi ngày
//	q                                                 thoát
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"order_board/internal/board"
	"order_board/internal/logger"
	"order_board/internal/production"
	"order_board/internal/utility"
)

func main() {
	defaultServer := os.Getenv("PUBLIC_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	server := flag.String("server", defaultServer, "order_board server base URL")
	day := flag.String("day", "", "day to watch (YYYY-MM-DD), default today in -tz")
	tz := flag.String("tz", "America/Vancouver", "business timezone used for the default day")
	retries := flag.Int("retries", 2, "toggle retries on transport errors (same requestId)")
	flag.Parse()

	log := logger.GetAppLogger()
	if *day == "" {
		loc, err := utility.LoadLocation(*tz)
		if err != nil {
			log.WithError(err).Warn("🧁 [BOARD] Unknown timezone, using UTC")
		}
		*day = utility.Today(loc)
	}
	if !utility.IsValidDay(*day) {
		fmt.Fprintf(os.Stderr, "invalid -day %q\n", *day)
		os.Exit(2)
	}

	client := board.NewHTTPClient(*server, 10*time.Second, *retries)
	b := board.New(client, client)
	defer b.Close()

	if err := b.SetDay(*day); err != nil {
		log.WithError(err).Error("🧁 [BOARD] Cannot subscribe")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands := make(chan string)
	go readCommands(os.Stdin, commands)

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.Store().Changed():
			render(os.Stdout, b.Store())
		case line, ok := <-commands:
			if !ok {
				return
			}
			if quit := handleCommand(ctx, b, line); quit {
				return
			}
		}
	}
}

func readCommands(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- strings.TrimSpace(scanner.Text())
	}
}

// handleCommand xử lý một dòng lệnh, trả về true khi cần thoát
func handleCommand(ctx context.Context, b *board.Board, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "q":
		return true
	case "d":
		if len(fields) != 2 || !utility.IsValidDay(fields[1]) {
			fmt.Println("usage: d YYYY-MM-DD")
			return false
		}
		if err := b.SetDay(fields[1]); err != nil {
			fmt.Println("subscribe failed:", err)
		}
	case "t":
		if len(fields) != 5 {
			fmt.Println("usage: t <groupKey> <orderId> <lineItemId> <unitIndex>")
			return false
		}
		idx, err := strconv.Atoi(fields[4])
		if err != nil || idx < 0 {
			fmt.Println("unitIndex must be a non-negative integer")
			return false
		}
		tctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		res, err := b.Toggle(tctx, fields[1], fields[2], fields[3], idx)
		if err != nil {
			fmt.Println("toggle failed:", err)
			return false
		}
		fmt.Printf("unit %s/%s#%d -> %d (%d/%d)\n", res.OrderID, res.LineItemID, res.UnitIndex, res.Completed, res.Done, res.Need)
	default:
		fmt.Println("commands: t <groupKey> <orderId> <lineItemId> <unitIndex> | d <day> | q")
	}
	return false
}

// render in tóm tắt batch: key, done/need và lưới unit (x = xong, . = chưa, - = void)
func render(w io.Writer, s *board.Store) {
	fmt.Fprintf(w, "\n=== %s ===", s.Day())
	if s.Loading() {
		fmt.Fprint(w, " (loading)")
	}
	if err := s.LastError(); err != nil {
		fmt.Fprintf(w, " [stream error: %v]", err)
	}
	fmt.Fprintf(w, "  orders: %d\n", len(s.Orders()))

	for _, g := range s.Groups() {
		fmt.Fprintf(w, "%3d/%-3d %s\n", g.Done, g.Need, g.Key)
		var grid strings.Builder
		for _, u := range g.ProgressItems {
			switch {
			case u.IsVoided:
				grid.WriteByte('-')
			case u.IsDone():
				grid.WriteByte('x')
			default:
				grid.WriteByte('.')
			}
		}
		fmt.Fprintf(w, "        [%s]\n", grid.String())
		for _, d := range production.DisplayUnits(g) {
			fmt.Fprintf(w, "        %d: %s %s %s#%d\n", d.Position+1, d.Unit.CustomerName, d.Unit.OrderID, d.Unit.LineItemID, d.Unit.UnitIndex)
		}
	}
}
