package reconcile

import "errors"

// ErrSyncInFlight is returned when Sync is called while another run is active.
var ErrSyncInFlight = errors.New("sync already in flight")
