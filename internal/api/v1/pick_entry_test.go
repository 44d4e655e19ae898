package v1

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPickEntry_Validate(t *testing.T) {
	now := time.Now()

	valid := PickEntry{
		ID:        "pick_123",
		CompanyID: "co_abc",
		RunID:     "run_7",
		MachineID: "m_1",
		SKUID:     "sku_cola",
		Quantity:  12,
		PickedAt:  now,
	}

	tests := []struct {
		name    string
		mutate  func(*PickEntry)
		wantErr string
	}{
		{name: "valid entry", mutate: func(*PickEntry) {}},
		{name: "missing company", mutate: func(e *PickEntry) { e.CompanyID = "" }, wantErr: "company_id"},
		{name: "missing sku", mutate: func(e *PickEntry) { e.SKUID = "" }, wantErr: "sku_id"},
		{name: "zero quantity", mutate: func(e *PickEntry) { e.Quantity = 0 }, wantErr: "quantity"},
		{name: "negative quantity", mutate: func(e *PickEntry) { e.Quantity = -3 }, wantErr: "quantity"},
		{name: "missing picked_at", mutate: func(e *PickEntry) { e.PickedAt = time.Time{} }, wantErr: "picked_at"},
		{name: "missing id is allowed", mutate: func(e *PickEntry) { e.ID = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entry := valid
			tc.mutate(&entry)
			err := entry.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestPickEntry_SeqNotSerialized(t *testing.T) {
	entry := PickEntry{
		ID:        "pick_1",
		CompanyID: "co_1",
		SKUID:     "sku_1",
		Quantity:  1,
		PickedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Seq:       42,
	}

	data, err := json.Marshal(&entry)
	require.NoError(t, err)
	require.NotContains(t, string(data), "42")
	require.NotContains(t, string(data), "seq")
}
