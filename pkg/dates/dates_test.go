package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRange(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  []string
	}{
		{
			name:  "three days",
			start: Date(2022, time.January, 1),
			end:   Date(2022, time.January, 3),
			want:  []string{"2022/01/01", "2022/01/02", "2022/01/03"},
		},
		{
			name:  "single day",
			start: Date(2024, time.February, 29),
			end:   Date(2024, time.February, 29),
			want:  []string{"2024/02/29"},
		},
		{
			name:  "month and year boundary",
			start: Date(2022, time.December, 31),
			end:   Date(2023, time.January, 1),
			want:  []string{"2022/12/31", "2023/01/01"},
		},
		{
			name:  "start after end",
			start: Date(2022, time.January, 5),
			end:   Date(2022, time.January, 4),
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Range(tt.start, tt.end)
			formatted := make([]string, len(got))
			for i, d := range got {
				formatted[i] = Format(d)
			}
			assert.Equal(t, tt.want, formatted)
		})
	}
}

func TestRangeAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// 2023-03-26 is 23 hours long in Berlin
	start := time.Date(2023, time.March, 25, 23, 30, 0, 0, loc)
	end := time.Date(2023, time.March, 27, 0, 15, 0, 0, loc)

	got := Range(start, end)
	require.Len(t, got, 3)
	assert.Equal(t, "2023/03/25", Format(got[0]))
	assert.Equal(t, "2023/03/27", Format(got[2]))
}

func TestRangeIsRestartable(t *testing.T) {
	start, end := Date(2022, time.January, 1), Date(2022, time.January, 10)
	assert.Equal(t, Range(start, end), Range(start, end))
}

func TestRangeStartAfterEndForAll(t *testing.T) {
	base := Date(2022, time.January, 1)
	for offset := 1; offset <= 400; offset++ {
		got := Range(base.AddDate(0, 0, offset), base)
		if len(got) != 0 {
			t.Fatalf("offset %d: expected empty range, got %d days", offset, len(got))
		}
	}
}

func TestParseFormat(t *testing.T) {
	d, err := Parse("2022/01/03")
	require.NoError(t, err)
	assert.Equal(t, Date(2022, time.January, 3), d)
	assert.Equal(t, "2022/01/03", Format(d))

	_, err = Parse("2022-01-03")
	assert.Error(t, err)
}

func TestToday(t *testing.T) {
	shanghai, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	// 20:00 UTC on Jan 2 is already Jan 3 in Shanghai
	now := time.Date(2022, time.January, 2, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, Date(2022, time.January, 3), Today(now, shanghai))
	assert.Equal(t, Date(2022, time.January, 2), Today(now, time.UTC))
}
