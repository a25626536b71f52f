package logger

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// AuditAction log một hành động audit
type AuditAction struct {
	Action     string                 `json:"action"`      // Tên hành động (ví dụ: "unit_toggle", "day_sync")
	ResourceID string                 `json:"resource_id"` // ID tài nguyên bị ảnh hưởng (ví dụ: groupKey)
	Day        string                 `json:"day"`         // Ngày của board
	IP         string                 `json:"ip"`
	UserAgent  string                 `json:"user_agent"`
	Details    map[string]interface{} `json:"details"`
	Timestamp  time.Time              `json:"timestamp"`
}

// LogAction log một hành động audit gắn với request
func LogAction(action string, c fiber.Ctx, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}

	audit := AuditAction{
		Action:    action,
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
		Details:   details,
		Timestamp: time.Now(),
	}
	if day, ok := details["day"].(string); ok {
		audit.Day = day
	}
	if resourceID, ok := details["resource_id"].(string); ok {
		audit.ResourceID = resourceID
	}
	if requestID := c.Get("X-Request-ID"); requestID != "" {
		audit.Details["request_id"] = requestID
	}

	writeAudit(audit)
}

// LogSystemAction log hành động audit không có request (worker, CLI)
func LogSystemAction(action, day string, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	writeAudit(AuditAction{
		Action:    action,
		Day:       day,
		IP:        "system",
		Details:   details,
		Timestamp: time.Now(),
	})
}

func writeAudit(audit AuditAction) {
	GetAuditLogger().WithFields(logrus.Fields{
		"action":      audit.Action,
		"resource_id": audit.ResourceID,
		"day":         audit.Day,
		"ip":          audit.IP,
		"user_agent":  audit.UserAgent,
		"details":     audit.Details,
		"timestamp":   audit.Timestamp,
	}).Info("Audit log")
}
