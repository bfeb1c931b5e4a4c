package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type fakeSender struct {
	sent    []int64
	failFor map[int64]bool
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	id, ok := to.(tele.ChatID)
	if !ok {
		return nil, errors.New("unexpected recipient type")
	}
	if f.failFor[int64(id)] {
		return nil, errors.New("forbidden: bot was blocked by the user")
	}
	f.sent = append(f.sent, int64(id))
	return &tele.Message{}, nil
}

func ids(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(i + 1)
	}
	return out
}

func TestRunDeliversSequentially(t *testing.T) {
	sender := &fakeSender{}
	res := Run(context.Background(), sender, ids(5), "hello", Options{Delay: time.Nanosecond})

	require.Equal(t, Result{Sent: 5, Failed: 0, Total: 5}, res)
	require.Equal(t, []int64{1, 2, 3, 4, 5}, sender.sent)
}

func TestRunCountsFailuresAndContinues(t *testing.T) {
	sender := &fakeSender{failFor: map[int64]bool{2: true, 4: true}}
	res := Run(context.Background(), sender, ids(5), "hello", Options{Delay: time.Nanosecond})

	require.Equal(t, Result{Sent: 3, Failed: 2, Total: 5}, res)
	require.Equal(t, []int64{1, 3, 5}, sender.sent)
}

func TestRunReportsProgressOnSuccessCount(t *testing.T) {
	sender := &fakeSender{failFor: map[int64]bool{1: true}}
	var snapshots [][3]int
	res := Run(context.Background(), sender, ids(7), "hello", Options{
		Delay:         time.Nanosecond,
		ProgressEvery: 3,
		OnProgress: func(sent, failed, total int) {
			snapshots = append(snapshots, [3]int{sent, failed, total})
		},
	})

	require.Equal(t, Result{Sent: 6, Failed: 1, Total: 7}, res)
	// Progress fires at 3 and 6 successful sends, not per attempt.
	require.Equal(t, [][3]int{{3, 1, 7}, {6, 1, 7}}, snapshots)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	sender := &fakeSender{}
	ctx, cancel := context.WithCancel(context.Background())

	var res Result
	done := make(chan struct{})
	go func() {
		defer close(done)
		res = Run(ctx, sender, ids(1000), "hello", Options{Delay: 10 * time.Millisecond})
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()
	<-done

	require.Less(t, res.Sent, 1000)
	require.Zero(t, res.Failed)
}
