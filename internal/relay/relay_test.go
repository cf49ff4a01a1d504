package relay

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayForwardsAndAccumulates(t *testing.T) {
	var forwarded []string
	var final string
	completions := 0

	rel := New(
		func(chunk string) error {
			forwarded = append(forwarded, chunk)
			return nil
		},
		func(full string) {
			final = full
			completions++
		},
	)

	for _, chunk := range []string{"Om ", "Namah ", "Shivaya"} {
		require.NoError(t, rel.Write(chunk))
	}
	rel.Close()

	assert.Equal(t, []string{"Om ", "Namah ", "Shivaya"}, forwarded)
	assert.Equal(t, "Om Namah Shivaya", strings.Join(forwarded, ""))
	assert.Equal(t, "Om Namah Shivaya", final)
	assert.Equal(t, 1, completions)
}

func TestRelayCompletionFiresOnce(t *testing.T) {
	completions := 0
	rel := New(
		func(string) error { return nil },
		func(string) { completions++ },
	)

	require.NoError(t, rel.Write("hello"))
	rel.Close()
	rel.Close()
	rel.Close()

	assert.Equal(t, 1, completions)
}

func TestRelayKeepsAccumulatingAfterForwardFailure(t *testing.T) {
	var forwarded []string
	var final string
	boom := errors.New("client disconnected")

	rel := New(
		func(chunk string) error {
			if len(forwarded) == 1 {
				return boom
			}
			forwarded = append(forwarded, chunk)
			return nil
		},
		func(full string) { final = full },
	)

	require.NoError(t, rel.Write("one "))
	require.NoError(t, rel.Write("two "))
	require.NoError(t, rel.Write("three"))
	rel.Close()

	// Forwarding stopped at the failure, accumulation did not.
	assert.Equal(t, []string{"one "}, forwarded)
	assert.Equal(t, "one two three", final)
	assert.ErrorIs(t, rel.ForwardErr(), boom)
}

func TestRelayEmptyStream(t *testing.T) {
	var final string
	fired := false
	rel := New(
		func(string) error { return nil },
		func(full string) {
			final = full
			fired = true
		},
	)
	rel.Close()

	assert.True(t, fired)
	assert.Equal(t, "", final)
}
