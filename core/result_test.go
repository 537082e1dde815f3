package core

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockedResultStream struct {
	max     int
	current int
	failAt  int
	closed  bool
}

func newMockedResultStream(maxRows int) *mockedResultStream {
	return &mockedResultStream{
		max:    maxRows,
		failAt: -1,
	}
}

func (mir *mockedResultStream) Header() Header {
	return Header{"header1", "header2"}
}

func (mir *mockedResultStream) Next() (Row, error) {
	if mir.current == mir.failAt {
		return nil, errors.New("stream broke")
	}
	if mir.current < mir.max {
		num := mir.current
		mir.current += 1
		return Row{num, strconv.Itoa(num)}, nil
	}

	return nil, errors.New("no next row")
}

func (mir *mockedResultStream) HasNext() bool {
	return mir.current < mir.max
}

func (mir *mockedResultStream) Close() { mir.closed = true }

func (mir *mockedResultStream) Range(from int, to int) []Row {
	var rows []Row

	for i := from; i < to; i++ {
		rows = append(rows, Row{i, strconv.Itoa(i)})
	}
	return rows
}

func TestResult_Rows(t *testing.T) {
	numOfRows := 10
	stream := newMockedResultStream(numOfRows)

	result, err := Collect(stream)
	require.NoError(t, err)
	require.True(t, stream.closed)
	require.Equal(t, numOfRows, result.Len())

	testCases := []struct {
		name          string
		from          int
		to            int
		expectedRows  []Row
		expectedError error
	}{
		{
			name:         "get all",
			from:         0,
			to:           -1,
			expectedRows: stream.Range(0, numOfRows),
		},
		{
			name:         "get basic range",
			from:         0,
			to:           3,
			expectedRows: stream.Range(0, 3),
		},
		{
			name:         "get last 2",
			from:         -3,
			to:           -1,
			expectedRows: stream.Range(numOfRows-2, numOfRows),
		},
		{
			name:         "get only one",
			from:         0,
			to:           1,
			expectedRows: stream.Range(0, 1),
		},
		{
			name:         "range past the end is clamped",
			from:         8,
			to:           20,
			expectedRows: stream.Range(8, numOfRows),
		},
		{
			name:          "invalid range",
			from:          5,
			to:            1,
			expectedError: ErrInvalidRange(5, 1),
		},
		{
			name:          "invalid range (even if 10 can be higher than -1, its undefined and should fail)",
			from:          -5,
			to:            10,
			expectedError: ErrInvalidRange(-5, 10),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := result.Rows(tc.from, tc.to)
			if tc.expectedError != nil {
				assert.EqualError(t, err, tc.expectedError.Error())
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.expectedRows, rows)
		})
	}
}

func TestResult_StreamError(t *testing.T) {
	stream := newMockedResultStream(5)
	stream.failAt = 2

	_, err := Collect(stream)
	assert.EqualError(t, err, "stream broke")
	assert.True(t, stream.closed)
}

func TestResult_Records(t *testing.T) {
	r := require.New(t)

	result := NewResult(Header{"user_id", "kwh"}, []Row{{"user_1", int64(10)}, {"user_2", int64(5), "extra"}})

	r.Equal([]map[string]any{
		{"user_id": "user_1", "kwh": int64(10)},
		{"user_id": "user_2", "kwh": int64(5), "<unknown-field-2>": "extra"},
	}, result.Records())
	r.Equal(map[string]any{"user_id": "user_1", "kwh": int64(10)}, result.First())

	empty := NewResult(Header{"a"}, nil)
	r.Equal(map[string]any{}, empty.First())
	r.Empty(empty.Records())
}
