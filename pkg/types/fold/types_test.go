package fold

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldResponse_SetFreeEnergy(t *testing.T) {
	var r FoldResponse
	r.SetFreeEnergy(-12.5)
	require.NotNil(t, r.FreeEnergy)
	assert.Equal(t, -12.5, r.FreeEnergyOrNaN())

	r.SetFreeEnergy(math.NaN())
	assert.Nil(t, r.FreeEnergy)
	assert.True(t, math.IsNaN(r.FreeEnergyOrNaN()))
}

func TestFoldResponse_JSONOmitsMissingEnergy(t *testing.T) {
	r := FoldResponse{ID: "x", Sequence: "LL*", Structure: -1}
	r.SetFreeEnergy(math.NaN())

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","sequence":"LL*","folded":false,"structure":-1}`, string(data))
}

func TestDecodeRequest_AssignsID(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"sequence":"LKAE"}`))
	require.NoError(t, err)
	assert.Equal(t, "LKAE", req.Sequence)
	_, err = uuid.Parse(req.ID)
	assert.NoError(t, err)

	req, err = DecodeRequest([]byte(`{"id":"job-7","sequence":"LKAE"}`))
	require.NoError(t, err)
	assert.Equal(t, "job-7", req.ID)

	_, err = DecodeRequest([]byte(`{`))
	assert.Error(t, err)
}
