package server

import (
	"errors"

	"github.com/Faultbox/gridprobe/pkg/gridlookup"
)

// Event is the envelope sent and received over the websocket.
type Event struct {
	Name string      `json:"name"`
	Data interface{} `json:"data,omitempty"`
}

// Event names.
const (
	EventPick    = "pick"
	EventScene   = "scene"
	EventReadout = "readout"
	EventError   = "error"
)

// Error kinds reported in ErrorData.Kind.
const (
	KindBadRequest  = "bad_request"
	KindOutOfBounds = "out_of_bounds"
	KindInternal    = "internal"
)

// pickRequest is the payload of a pick event. HitPnt is the [x, y, z]
// world position reported by the 3D engine.
type pickRequest struct {
	ID     string    `mapstructure:"id"`
	HitPnt []float64 `mapstructure:"hitPnt"`
}

// ReadoutData answers a pick event.
type ReadoutData struct {
	ID           string              `json:"id,omitempty"`
	Readout      *gridlookup.Readout `json:"readout"`
	Interpolated float64             `json:"interpolated"`
}

// ErrorData answers a request that could not be served.
type ErrorData struct {
	ID      string `json:"id,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Axis    string `json:"axis,omitempty"`
	Index   *int   `json:"index,omitempty"`
}

// SceneData describes the grid behind the server.
type SceneData struct {
	Columns       int     `json:"columns"`
	Rows          int     `json:"rows"`
	ColumnSpacing float64 `json:"columnSpacing"`
	RowSpacing    float64 `json:"rowSpacing"`
	VerticalScale float64 `json:"verticalScale"`
	BoundsPolicy  string  `json:"boundsPolicy"`
	MinElevation  float64 `json:"minElevation"`
	MaxElevation  float64 `json:"maxElevation"`
}

func errorData(id string, err error) ErrorData {
	d := ErrorData{ID: id, Kind: KindInternal, Message: err.Error()}

	var oob *gridlookup.OutOfBoundsError
	switch {
	case errors.As(err, &oob):
		d.Kind = KindOutOfBounds
		d.Axis = string(oob.Axis)
		idx := oob.Index
		d.Index = &idx
	case errors.Is(err, errBadRequest):
		d.Kind = KindBadRequest
	}
	return d
}

var errBadRequest = errors.New("bad request")
