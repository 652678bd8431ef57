package providerapi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
)

func TestNormalizeServices_EnvelopeEquivalence(t *testing.T) {
	item := `{"service":"9","name":"Instagram Followers","category":"Instagram","rate":"0.90","min":10,"max":5000}`
	payloads := map[string]string{
		"bare array":        fmt.Sprintf(`[%s]`, item),
		"data envelope":     fmt.Sprintf(`{"data":[%s]}`, item),
		"services envelope": fmt.Sprintf(`{"services":[%s]}`, item),
	}

	var want []provider.CanonicalService
	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			got, err := NormalizeServices([]byte(payload))
			require.NoError(t, err)
			require.Len(t, got, 1)
			if want == nil {
				want = got
				return
			}
			assert.Equal(t, want, got, "every envelope shape must normalize identically")
		})
	}
}

func TestNormalizeServices_KeepProviderOrder(t *testing.T) {
	payload := `[
		{"service":"3","name":"C","category":"x","rate":1},
		{"service":"1","name":"A","category":"x","rate":1},
		{"service":"2","name":"B","category":"x","rate":1}
	]`
	got, err := NormalizeServices([]byte(payload))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"3", "1", "2"}, []string{got[0].ServiceID, got[1].ServiceID, got[2].ServiceID})
}

func TestNormalizeServices_IDAliasPrecedence(t *testing.T) {
	// Both aliases present: "service" is first in the table and wins.
	payload := `[{"service":"9","id":"777","name":"n","rate":1}]`
	got, err := NormalizeServices([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "9", got[0].ServiceID)

	payload = `[{"id":"777","name":"n","rate":1}]`
	got, err = NormalizeServices([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "777", got[0].ServiceID)
}

func TestNormalizeServices_RatePrecedence(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"rate over price", `[{"service":"1","rate":"2.50","price":"9.99"}]`, "2.5"},
		{"price alone", `[{"service":"1","price":"9.99"}]`, "9.99"},
		{"providerPrice wins only next to rate", `[{"service":"1","providerPrice":"0.40","rate":"2.50"}]`, "0.4"},
		{"providerPrice alone is ignored", `[{"service":"1","providerPrice":"0.40","price":"9.99"}]`, "9.99"},
		{"numeric rate", `[{"service":"1","rate":1.25}]`, "1.25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeServices([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got[0].Rate.String())
		})
	}
}

func TestNormalizeServices_FirstPresentAliasWinsEvenWhenFalsy(t *testing.T) {
	// refill=false is a legitimate value; the later refillable=true alias
	// must not override it.
	payload := `[{"service":"1","rate":1,"refill":false,"refillable":true}]`
	got, err := NormalizeServices([]byte(payload))
	require.NoError(t, err)
	assert.False(t, got[0].Refill)
}

func TestNormalizeServices_LooseBoolCoercion(t *testing.T) {
	truthy := []string{`true`, `1`, `"1"`, `"true"`, `"TRUE"`, `"True"`}
	falsy := []string{`false`, `0`, `"0"`, `"false"`, `"yes"`, `"on"`, `2`, `null`}

	for _, v := range truthy {
		t.Run("truthy "+v, func(t *testing.T) {
			payload := fmt.Sprintf(`[{"service":"1","rate":1,"refill":%s,"cancel":%s}]`, v, v)
			got, err := NormalizeServices([]byte(payload))
			require.NoError(t, err)
			assert.True(t, got[0].Refill)
			assert.True(t, got[0].Cancel)
		})
	}
	for _, v := range falsy {
		t.Run("falsy "+v, func(t *testing.T) {
			payload := fmt.Sprintf(`[{"service":"1","rate":1,"refill":%s,"cancel":%s}]`, v, v)
			got, err := NormalizeServices([]byte(payload))
			require.NoError(t, err)
			assert.False(t, got[0].Refill)
			assert.False(t, got[0].Cancel)
		})
	}
}

func TestNormalizeServices_RefillCancelAliases(t *testing.T) {
	payload := `[{"service":"1","rate":1,"refillable":"1","can_cancel":true}]`
	got, err := NormalizeServices([]byte(payload))
	require.NoError(t, err)
	assert.True(t, got[0].Refill)
	assert.True(t, got[0].Cancel)
}

func TestNormalizeServices_Defaults(t *testing.T) {
	payload := `[{"service":"1","name":"Plain","rate":"1.00"}]`
	got, err := NormalizeServices([]byte(payload))
	require.NoError(t, err)

	svc := got[0]
	assert.Equal(t, 1, svc.Min)
	assert.Equal(t, 10000, svc.Max)
	assert.False(t, svc.Refill)
	assert.False(t, svc.Cancel)
	assert.Equal(t, "Plain", svc.Description, "description falls back to the name")
}

func TestNormalizeServices_DescriptionAliases(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"description first", `[{"service":"1","rate":1,"name":"n","description":"a","desc":"b"}]`, "a"},
		{"desc", `[{"service":"1","rate":1,"name":"n","desc":"b","details":"c"}]`, "b"},
		{"details", `[{"service":"1","rate":1,"name":"n","details":"c"}]`, "c"},
		{"info", `[{"service":"1","rate":1,"name":"n","info":"d"}]`, "d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeServices([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got[0].Description)
		})
	}
}

func TestNormalizeServices_MissingRequiredFields(t *testing.T) {
	_, err := NormalizeServices([]byte(`[{"name":"no id","rate":1}]`))
	require.ErrorIs(t, err, provider.ErrUnparseableResponse)

	_, err = NormalizeServices([]byte(`[{"service":"1","name":"no rate"}]`))
	require.ErrorIs(t, err, provider.ErrUnparseableResponse)
}

func TestNormalizeServices_UnrecognizedEnvelope(t *testing.T) {
	for _, payload := range []string{`"just a string"`, `42`, `{"other":[{"service":"1"}]}`, `not json`} {
		_, err := NormalizeServices([]byte(payload))
		assert.ErrorIs(t, err, provider.ErrUnparseableResponse, payload)
	}
}

func TestNormalizeServices_EmptyArray(t *testing.T) {
	got, err := NormalizeServices([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAggregateCategories(t *testing.T) {
	services := []provider.CanonicalService{
		{ServiceID: "1", Category: "Instagram"},
		{ServiceID: "2", Category: "  TikTok "},
		{ServiceID: "3", Category: "Instagram"},
		{ServiceID: "4", Category: "   "},
		{ServiceID: "5", Category: "Facebook"},
	}

	got := AggregateCategories(services)
	require.Len(t, got, 3)
	assert.Equal(t, []provider.CategorySummary{
		{Name: "Facebook", ServiceCount: 1},
		{Name: "Instagram", ServiceCount: 2},
		{Name: "TikTok", ServiceCount: 1},
	}, got, "sorted lexicographically, empties dropped, labels trimmed")
}

func TestNormalizeCategories(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{"string list", `["TikTok","Instagram"]`, []string{"Instagram", "TikTok"}},
		{"object list", `[{"name":"B"},{"category":"A"}]`, []string{"A", "B"}},
		{"data envelope", `{"data":["Z","Y"]}`, []string{"Y", "Z"}},
		{"categories envelope", `{"categories":["M"]}`, []string{"M"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCategories([]byte(tt.payload))
			require.NoError(t, err)
			names := make([]string, len(got))
			for i, c := range got {
				names[i] = c.Name
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestNormalizeOrderStatuses(t *testing.T) {
	payload := `{
		"1001": {"status":"Completed","start_count":"120","remains":0,"charge":"1.50"},
		"1002": {"status":"In progress","start_count":50,"remains":"200","charge":0.75},
		"1003": {"error":"Incorrect order ID"},
		"1004": {"status":"vanished"}
	}`
	got, err := NormalizeOrderStatuses([]byte(payload))
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, provider.OrderStatusCompleted, got["1001"].Status)
	assert.Equal(t, 120, got["1001"].StartCount)
	assert.Equal(t, "1.5", got["1001"].Charge.String())

	assert.Equal(t, provider.OrderStatusInProgress, got["1002"].Status)
	assert.Equal(t, 200, got["1002"].Remains)

	assert.Equal(t, "Incorrect order ID", got["1003"].Err)
	assert.Contains(t, got["1004"].Err, "unknown status")
}

func TestNormalizeOrderStatuses_WrappedEnvelope(t *testing.T) {
	payload := `{"data":{"55":{"status":"pending"}}}`
	got, err := NormalizeOrderStatuses([]byte(payload))
	require.NoError(t, err)
	require.Contains(t, got, "55")
	assert.Equal(t, provider.OrderStatusPending, got["55"].Status)
}
