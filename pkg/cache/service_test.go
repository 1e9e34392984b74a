package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type availability struct {
	TierID    string `json:"tier_id"`
	Remaining int    `json:"remaining"`
}

func TestGetMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	mock.ExpectGet("k").RedisNil()

	var dest availability
	err := svc.Get(context.Background(), "k", &dest)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSetHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	mock.ExpectGet("k").SetVal(`{"tier_id":"t1","remaining":7}`)

	var dest availability
	err := svc.GetOrSet(context.Background(), "k", time.Minute, func() (interface{}, error) {
		t.Fatal("fetcher must not run on a hit")
		return nil, nil
	}, &dest)

	require.NoError(t, err)
	assert.Equal(t, availability{TierID: "t1", Remaining: 7}, dest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSetMissPopulates(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	mock.ExpectGet("k").RedisNil()
	mock.ExpectSet("k", []byte(`{"tier_id":"t1","remaining":3}`), time.Minute).SetVal("OK")

	var dest availability
	err := svc.GetOrSet(context.Background(), "k", time.Minute, func() (interface{}, error) {
		return availability{TierID: "t1", Remaining: 3}, nil
	}, &dest)

	require.NoError(t, err)
	assert.Equal(t, 3, dest.Remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSetSurvivesRedisOutage(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	mock.ExpectGet("k").SetErr(errors.New("connection refused"))
	mock.ExpectSet("k", []byte(`{"tier_id":"t1","remaining":1}`), time.Minute).SetErr(errors.New("connection refused"))

	var dest availability
	err := svc.GetOrSet(context.Background(), "k", time.Minute, func() (interface{}, error) {
		return availability{TierID: "t1", Remaining: 1}, nil
	}, &dest)

	require.NoError(t, err)
	assert.Equal(t, 1, dest.Remaining)
}

func TestGetOrSetFetcherError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	mock.ExpectGet("k").RedisNil()

	var dest availability
	err := svc.GetOrSet(context.Background(), "k", time.Minute, func() (interface{}, error) {
		return nil, errors.New("db down")
	}, &dest)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	mock.ExpectDel("a", "b").SetVal(2)

	require.NoError(t, svc.Delete(context.Background(), "a", "b"))
	require.NoError(t, svc.Delete(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
