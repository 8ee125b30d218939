package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expected      time.Time
		expectedError bool
	}{
		{
			name:     "rfc3339",
			input:    `"2024-03-01T10:20:30Z"`,
			expected: time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC),
		},
		{
			name:     "rfc3339 with offset",
			input:    `"2024-03-01T13:20:30+03:00"`,
			expected: time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC),
		},
		{
			name:     "naive iso with microseconds",
			input:    `"2024-03-01T10:20:30.123456"`,
			expected: time.Date(2024, 3, 1, 10, 20, 30, 123456000, time.UTC),
		},
		{
			name:     "naive iso without fraction",
			input:    `"2024-03-01T10:20:30"`,
			expected: time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC),
		},
		{
			name:     "null",
			input:    `null`,
			expected: time.Time{},
		},
		{
			name:     "empty string",
			input:    `""`,
			expected: time.Time{},
		},
		{
			name:          "garbage",
			input:         `"yesterday"`,
			expectedError: true,
		},
		{
			name:          "not a string",
			input:         `42`,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			err := json.Unmarshal([]byte(tt.input), &ts)

			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(ts.Time), "expected %v, got %v", tt.expected, ts.Time)
		})
	}
}

func TestWork_DecodeServicePayload(t *testing.T) {
	payload := `{"id":7,"user_id":2,"title":"Sunset","description":"",` +
		`"image_url":"data:image/png;base64,AAAA","is_favorite":true,` +
		`"created_at":"2024-05-06T07:08:09.000001"}`

	var work Work
	require.NoError(t, json.Unmarshal([]byte(payload), &work))

	assert.Equal(t, 7, work.ID)
	assert.Equal(t, 2, work.UserID)
	assert.Equal(t, "Sunset", work.Title)
	assert.True(t, work.IsFavorite)
	assert.Equal(t, 2024, work.CreatedAt.Year())
	assert.Equal(t, 1000, work.CreatedAt.Nanosecond())
}

func TestTimestamp_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-02T03:04:05Z"`, string(data))

	data, err = json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, `null`, string(data))
}

func TestSession_CanDelete(t *testing.T) {
	owner := &User{ID: 1, Username: "anna"}
	other := &User{ID: 2, Username: "boris"}
	work := &Work{ID: 10, UserID: 1}

	assert.True(t, (&Session{User: owner}).CanDelete(work))
	assert.False(t, (&Session{User: other}).CanDelete(work))
	assert.True(t, (&Session{User: other, IsAdminElevated: true}).CanDelete(work))
	assert.False(t, (&Session{IsAdminElevated: true}).CanDelete(work))
	assert.False(t, (&Session{User: owner}).CanDelete(nil))
}

func TestUser_Initial(t *testing.T) {
	assert.Equal(t, "A", (&User{DisplayName: "anna"}).Initial())
	assert.Equal(t, "Н", (&User{DisplayName: "настя"}).Initial())
	assert.Equal(t, "B", (&User{Username: "boris"}).Initial())
	assert.Equal(t, "?", (&User{}).Initial())
}
