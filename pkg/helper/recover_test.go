package helper

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

func TestRecoverToError(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf)

	run := func() (err error) {
		defer RecoverToError(log, "boom", &err)
		panic("bad release metadata")
	}

	err := run()
	assert.EqualError(t, err, "boom panicked: bad release metadata")
	assert.Contains(t, buf.String(), "PANIC recovered in boom")
}

func TestRecoverToError_KeepsReturnedError(t *testing.T) {
	run := func() (err error) {
		defer RecoverToError(logger.NewNop(), "quiet", &err)
		return errors.New("plain failure")
	}
	assert.EqualError(t, run(), "plain failure")
}
