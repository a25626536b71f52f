package database

import (
	"testing"
	"time"

	ordermodels "order_board/internal/api/order/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestParseIndexTag(t *testing.T) {
	got := parseIndexTag("compound:day_ref_number,single:1;unique,sparse")
	require.Len(t, got, 2)
	assert.Equal(t, "day_ref_number", got[0]["compound"])
	assert.Equal(t, "1", got[0]["single"])
	_, hasSparse := got[1]["sparse"]
	assert.True(t, hasSparse)
}

func TestCollectIndexSpecsFromOrderModel(t *testing.T) {
	names, err := IndexNames(ordermodels.Order{})
	require.NoError(t, err)
	assert.Equal(t, []string{"day_ref_number", "day_single"}, names)

	specs, err := collectIndexSpecs(&ordermodels.Order{})
	require.NoError(t, err)
	for _, s := range specs {
		if s.Name == "day_ref_number" {
			assert.Equal(t, bson.D{{Key: "day", Value: 1}, {Key: "ref_number", Value: 1}}, s.Keys)
			assert.Nil(t, s.Options.Unique)
		}
	}
}

func TestCollectIndexSpecsTTLAndUnique(t *testing.T) {
	type sample struct {
		Email   string    `bson:"email" index:"unique,sparse"`
		Expires time.Time `bson:"expiresAt,omitempty" index:"ttl:3600"`
		Bad     string    `bson:"-" index:"single:1"`
	}
	specs, err := collectIndexSpecs(sample{})
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "email_unique", specs[0].Name)
	assert.True(t, *specs[0].Options.Unique)
	assert.True(t, *specs[0].Options.Sparse)

	assert.Equal(t, "expiresAt_ttl", specs[1].Name)
	assert.Equal(t, int32(3600), *specs[1].Options.ExpireAfterSeconds)

	type broken struct {
		At time.Time `bson:"at" index:"ttl:soon"`
	}
	_, err = collectIndexSpecs(broken{})
	assert.Error(t, err)
}

func TestCompareIndex(t *testing.T) {
	keys := bson.D{{Key: "createdAt", Value: 1}}
	opts := options.Index().SetName("createdAt_ttl").SetExpireAfterSeconds(86400)

	same := bson.M{"key": bson.M{"createdAt": int32(1)}, "expireAfterSeconds": int32(86400)}
	assert.True(t, compareIndex(same, keys, opts))

	changedTTL := bson.M{"key": bson.M{"createdAt": int32(1)}, "expireAfterSeconds": int32(3600)}
	assert.False(t, compareIndex(changedTTL, keys, opts))

	descending := bson.M{"key": bson.M{"createdAt": int32(-1)}, "expireAfterSeconds": int32(86400)}
	assert.False(t, compareIndex(descending, keys, opts))

	nowUnique := bson.M{"key": bson.M{"createdAt": int32(1)}, "expireAfterSeconds": int32(86400), "unique": true}
	assert.False(t, compareIndex(nowUnique, keys, opts))
}
