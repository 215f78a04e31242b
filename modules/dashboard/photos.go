package dashboard

import (
	"context"
	"errors"
	"net/http"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
	"github.com/sublimeanger/vintifi/pkg/metering"
)

type enhanceRequest struct {
	ImageURL string `json:"image_url"`
}

// handleEnhancePhoto runs the studio enhancement. The artifact is persisted
// even when it arrives after the request deadline: the seller finds it in
// their studio later, and the late delivery is not billed.
func (m *Module) handleEnhancePhoto(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r.Context())

	var req enhanceRequest
	if err := decodeBody(r, &req); err != nil || req.ImageURL == "" {
		m.writeBadRequest(w, "image_url is required")
		return
	}

	var artifactURL string
	dec, err := m.meter.Charge(r.Context(), acct.ID, acct.Tier, entitlement.FeaturePhotoEnhance, 1,
		func(ctx context.Context) error {
			data, contentType, workErr := m.studio.Enhance(ctx, req.ImageURL)
			if workErr != nil {
				return workErr
			}

			// Persist regardless of the caller's deadline.
			storeCtx := context.WithoutCancel(ctx)
			url, putErr := m.artifacts.Put(storeCtx, acct.ID, "enhanced", contentType, data)
			if putErr != nil {
				return putErr
			}
			artifactURL = url
			return nil
		})
	if err != nil {
		if errors.Is(err, metering.ErrEntitlementDenied) {
			m.writeDenial(w, dec)
			return
		}
		m.writeError(r.Context(), w, err)
		return
	}

	m.writeJSON(w, http.StatusOK, envelope{Data: struct {
		ArtifactURL string `json:"artifact_url"`
		Remaining   int64  `json:"remaining"`
	}{ArtifactURL: artifactURL, Remaining: dec.Remaining}})
}
