package broker

import (
	"sync"

	"github.com/cloudfoundry-community/mockbroker"
)

// introspection guards the last request/response snapshots. Purely
// diagnostic: the only guarantee is that the pair reflects the last call.
type introspection struct {
	mutex        sync.Mutex
	lastRequest  *mockbroker.RequestSnapshot
	lastResponse *mockbroker.ResponseSnapshot
}

func (i *introspection) reset() {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	i.lastRequest = nil
	i.lastResponse = nil
}

func (b *Broker) RecordRequest(snapshot mockbroker.RequestSnapshot) {
	b.introspection.mutex.Lock()
	defer b.introspection.mutex.Unlock()

	b.introspection.lastRequest = &snapshot
}

func (b *Broker) RecordResponse(snapshot mockbroker.ResponseSnapshot) {
	b.introspection.mutex.Lock()
	defer b.introspection.mutex.Unlock()

	b.introspection.lastResponse = &snapshot
}

func (b *Broker) LastRequest() *mockbroker.RequestSnapshot {
	b.introspection.mutex.Lock()
	defer b.introspection.mutex.Unlock()

	return b.introspection.lastRequest
}

func (b *Broker) LastResponse() *mockbroker.ResponseSnapshot {
	b.introspection.mutex.Lock()
	defer b.introspection.mutex.Unlock()

	return b.introspection.lastResponse
}
