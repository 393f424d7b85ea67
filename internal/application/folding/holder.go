package folding

import (
	"sync/atomic"

	"github.com/turtacn/foldcore/pkg/errors"
)

// Provider hands out the folding service once it is available.
type Provider interface {
	Get() (Service, error)
}

// Holder publishes a Service built in the background. The zero value holds
// nothing and is ready for use.
type Holder struct {
	v atomic.Value
}

type serviceBox struct{ svc Service }

// NewHolder returns a Holder already holding svc.
func NewHolder(svc Service) *Holder {
	h := &Holder{}
	h.Set(svc)
	return h
}

// Set publishes svc to every subsequent Get.
func (h *Holder) Set(svc Service) {
	h.v.Store(serviceBox{svc: svc})
}

// Get returns the service, or ErrCodeFolderNotReady before Set.
func (h *Holder) Get() (Service, error) {
	b, ok := h.v.Load().(serviceBox)
	if !ok || b.svc == nil {
		return nil, errors.New(errors.ErrCodeFolderNotReady, "conformation library is still loading")
	}
	return b.svc, nil
}

// Ready reports whether a ready service has been published.
func (h *Holder) Ready() bool {
	svc, err := h.Get()
	return err == nil && svc.Ready()
}
