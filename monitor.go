package sesskit

import "context"

// runMonitor watches the API client's failure stream and converts a
// server logout directive into a forced teardown. It is the single
// subscriber of the stream; running until Close keeps the channel drained
// so the client never stalls publishing.
func (e *Engine) runMonitor() {
	defer e.monitorWG.Done()

	failures := e.client.Failures()
	for {
		select {
		case event := <-failures:
			if !event.ShouldLogout {
				continue
			}
			// Teardown must survive the failing request's context, which
			// is usually already cancelled by the time this fires.
			e.ForceLogout(context.Background())
		case <-e.monitorStop:
			return
		}
	}
}
