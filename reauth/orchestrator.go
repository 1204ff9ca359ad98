// ABOUTME: Reauthentication state machine over credential validity
// ABOUTME: Serializes refresh cycles so concurrent triggers share one remote call

package reauth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/omniq-ai/omniq-gateway/authclient"
	"github.com/omniq-ai/omniq-gateway/metrics"
	"github.com/omniq-ai/omniq-gateway/models"
	"github.com/omniq-ai/omniq-gateway/store"
)

// Orchestrator decides when to refresh credentials and reconciles the outcome
// with the store. At most one refresh cycle is in flight at a time; concurrent
// callers that observe a non-valid state wait for the in-flight attempt's
// outcome instead of issuing their own remote call.
type Orchestrator struct {
	store     *store.CredentialStore
	auth      *authclient.Client
	collector *metrics.Collector
	sfGroup   singleflight.Group
}

func New(st *store.CredentialStore, auth *authclient.Client, collector *metrics.Collector) *Orchestrator {
	return &Orchestrator{store: st, auth: auth, collector: collector}
}

// Ensure returns a usable credential record, triggering a refresh cycle when
// the current state is Expired or Missing. The second return reports whether
// a refresh was performed for this call. A failed cycle is terminal for the
// request; no automatic retry.
func (o *Orchestrator) Ensure(ctx context.Context) (*models.CredentialRecord, bool, error) {
	if validity, rec := o.store.Read(); validity == models.ValidityValid {
		return rec, false, nil
	}

	rec, err := o.refresh(ctx, false)
	if err != nil {
		return nil, true, err
	}
	return rec, true, nil
}

// ForceRefresh runs a refresh cycle regardless of current validity. Used by
// the manual reauthentication endpoint.
func (o *Orchestrator) ForceRefresh(ctx context.Context) (*models.CredentialRecord, error) {
	return o.refresh(ctx, true)
}

// refresh funnels all cycles through one singleflight key so store writes
// never interleave and the remote authority sees one call per burst.
func (o *Orchestrator) refresh(ctx context.Context, force bool) (*models.CredentialRecord, error) {
	v, err, _ := o.sfGroup.Do("refresh", func() (interface{}, error) {
		// A cycle that just finished may already have fixed the state.
		if !force {
			if validity, rec := o.store.Read(); validity == models.ValidityValid {
				return rec, nil
			}
		}
		// The cycle is shared by every waiting caller, so it must not die
		// with whichever caller happened to start it. The authority client's
		// own timeout still bounds it.
		return o.cycle(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.CredentialRecord), nil
}

// cycle is one fetch → persist → re-verify pass.
func (o *Orchestrator) cycle(ctx context.Context) (*models.CredentialRecord, error) {
	start := time.Now()

	fetched, err := o.auth.FetchCredentials(ctx)
	if err != nil {
		o.record("fetch_failed")
		slog.Warn("Credential fetch failed", "error", err)
		return nil, err
	}

	if err := o.store.Write(fetched); err != nil {
		o.record("write_failed")
		slog.Error("Credential persist failed", "error", err)
		return nil, err
	}

	validity, rec := o.store.Read()
	if validity != models.ValidityValid {
		o.record("invalid_after_write")
		return nil, fmt.Errorf("refresh produced a %s credential record", validity)
	}

	o.record("success")
	slog.Info("Credential refresh complete", "latency_ms", time.Since(start).Milliseconds())
	return rec, nil
}

func (o *Orchestrator) record(outcome string) {
	if o.collector != nil {
		o.collector.RecordRefresh(outcome)
	}
}
