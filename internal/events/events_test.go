package events

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")

func TestRecorder_BoundedHistory(t *testing.T) {
	r := NewRecorder(3)
	for i := 0; i < 5; i++ {
		r.Record(Event{Type: TypeCollateralDeposited, From: alice, Amount: big.NewInt(int64(i))})
	}

	assert.Equal(t, 3, r.Len())
	recent := r.Recent(10)
	require.Len(t, recent, 3)
	assert.Equal(t, int64(2), recent[0].Amount.Int64())
	assert.Equal(t, int64(4), recent[2].Amount.Int64())
}

func TestRecorder_RecentSubset(t *testing.T) {
	r := NewRecorder(10)
	for i := 0; i < 4; i++ {
		r.Record(Event{Type: TypeDebtMinted, From: alice, Amount: big.NewInt(int64(i))})
	}

	recent := r.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(3), recent[1].Amount.Int64())
}

func TestRecorder_StampsAndCopies(t *testing.T) {
	r := NewRecorder(10)
	amount := big.NewInt(7)
	r.Record(Event{Type: TypeDebtBurned, From: alice, Amount: amount})

	amount.SetInt64(999)
	recent := r.Recent(1)
	assert.Equal(t, int64(7), recent[0].Amount.Int64(), "recorder must copy amounts")
	assert.False(t, recent[0].At.IsZero())
}

func TestExporter_PostsBatchOnFill(t *testing.T) {
	var mu sync.Mutex
	var got []map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Events []map[string]interface{} `json:"events"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		mu.Lock()
		got = append(got, payload.Events...)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exporter := NewExporter(ExporterConfig{WebhookURL: srv.URL, BatchSize: 2, Interval: time.Hour})
	r := NewRecorder(10).WithExporter(exporter)

	r.Record(Event{Type: TypeCollateralDeposited, From: alice, Amount: big.NewInt(1)})
	r.Record(Event{Type: TypeDebtMinted, From: alice, Amount: big.NewInt(2)})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 10*time.Millisecond)

	exporter.Stop()
}

func TestExporter_StopFlushesPending(t *testing.T) {
	var mu sync.Mutex
	count := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Events []map[string]interface{} `json:"events"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		mu.Lock()
		count += len(payload.Events)
		mu.Unlock()
	}))
	defer srv.Close()

	exporter := NewExporter(ExporterConfig{WebhookURL: srv.URL, BatchSize: 100, Interval: time.Hour})
	exporter.Add(Event{Type: TypeLiquidation, From: alice, Amount: big.NewInt(1)})
	exporter.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}
