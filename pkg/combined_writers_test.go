package pkg

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestCombinedWriter_Write(t *testing.T) {
	sb1 := &strings.Builder{}
	sb1.WriteString("already-here|")
	sb2 := &strings.Builder{}

	cw := NewCombinedWriter(sb1, sb2)

	n, err := cw.Write([]byte("rep 1 done"))
	require.NoError(t, err)
	assert.Equal(t, len("rep 1 done"), n)
	_, err = cw.Write([]byte("|rep 2 done"))
	require.NoError(t, err)

	assert.Equal(t, "already-here|rep 1 done|rep 2 done", sb1.String())
	assert.Equal(t, "rep 1 done|rep 2 done", sb2.String())
}

func TestCombinedWriter_Write_WithErrors(t *testing.T) {
	sb := &strings.Builder{}
	cw := NewCombinedWriter(&faultyWriter{}, sb)

	msg := "frame not analyzed"
	n, err := cw.Write([]byte(msg))
	assert.ErrorContains(t, err, "disk gone")
	assert.Equal(t, len(msg), n)
	assert.Equal(t, msg, sb.String())

	cw = NewCombinedWriter(&faultyWriter{}, &faultyWriter{})
	n, err = cw.Write([]byte(msg))
	assert.Zero(t, n)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestCombinedWriter_Close(t *testing.T) {
	fw := &faultyWriter{}
	cw := NewCombinedWriter(os.Stdout, &strings.Builder{}, fw)
	assert.NoError(t, cw.Close())
	assert.True(t, fw.closed)
}

type faultyWriter struct {
	closed bool
}

func (fw *faultyWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk gone")
}

func (fw *faultyWriter) Close() error {
	fw.closed = true
	return nil
}
