package errorcode_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailcapture/core/internal/catalog"
	"github.com/trailcapture/core/internal/errorcode"
)

func TestFromMapsKnownSentinels(t *testing.T) {
	require.Equal(t, errorcode.NoSuchMeasurement, errorcode.From(catalog.ErrNoSuchMeasurement))
	require.Equal(t, errorcode.Conflict, errorcode.From(catalog.ErrActiveMeasurementExists))
	require.Equal(t, errorcode.Conflict, errorcode.From(catalog.ErrIllegalTransition))
}

func TestFromWrapsOriginalError(t *testing.T) {
	wrapped := errors.New("wrapper: " + catalog.ErrNoSuchMeasurement.Error())
	require.Equal(t, errorcode.Unexpected, errorcode.From(wrapped))

	properlyWrapped := errorsJoinFmt(catalog.ErrNoSuchMeasurement)
	require.Equal(t, errorcode.NoSuchMeasurement, errorcode.From(properlyWrapped))
}

func errorsJoinFmt(err error) error {
	return errors.Join(err)
}

func TestFromDefaultsToUnexpected(t *testing.T) {
	require.Equal(t, errorcode.Unexpected, errorcode.From(errors.New("boom")))
}

func TestCodeStringCoversAllMembers(t *testing.T) {
	codes := []errorcode.Code{
		errorcode.Unauthorized, errorcode.Forbidden, errorcode.BadRequest,
		errorcode.Conflict, errorcode.EntityTooLarge, errorcode.SessionExpired,
		errorcode.ServerUnavailable, errorcode.NetworkUnavailable,
		errorcode.SynchronizationInterrupted, errorcode.TooManyRequests,
		errorcode.HostUnresolvable, errorcode.AccountNotActivated,
		errorcode.SyncError, errorcode.MeasurementTooLarge,
		errorcode.NoSuchMeasurement, errorcode.CursorNull,
	}

	for _, c := range codes {
		require.NotEmpty(t, c.String())
	}
}
