package notify

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kingrea/dutyflow/internal/logbook"
)

func TestFanoutReachesRecorderAndJournal(t *testing.T) {
	t.Parallel()

	book, err := logbook.New(filepath.Join(t.TempDir(), "activity.log"))
	require.NoError(t, err)
	rec := NewRecorder()

	n := Fanout(rec, Journal{Book: book}, nil)
	n.Notify(Info("Turn Skipped", "The current turn has been skipped successfully."))
	n.Notify(Error("Error Sending Reminder", "Could not send the reminder."))

	require.Equal(t, []string{"Turn Skipped", "Error Sending Reminder"}, rec.Titles())
	last, ok := rec.Last()
	require.True(t, ok)
	require.True(t, last.IsError())
	require.False(t, last.At.IsZero())

	lines, total := book.Tail(5)
	require.Equal(t, 2, total)
	require.True(t, strings.Contains(lines[0], "INFO"))
	require.True(t, strings.Contains(lines[1], "ERROR"))
	require.Contains(t, lines[1], "Could not send the reminder.")
}
