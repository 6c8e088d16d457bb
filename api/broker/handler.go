package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fleetops/device-provisioning-backend/api"
	"github.com/fleetops/device-provisioning-backend/cryptoutils"
	"github.com/fleetops/device-provisioning-backend/interfaces"
	"github.com/fleetops/device-provisioning-backend/metrics"
	"github.com/fleetops/device-provisioning-backend/regions"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	// maxBodySize is the maximum allowed request body size (1MB).
	maxBodySize = 1024 * 1024

	// forwardedForHeader carries the caller's source address, set by the
	// transport layer in front of the service.
	forwardedForHeader = "X-Forwarded-For"

	locateTimeout   = 10 * time.Second
	registryTimeout = 10 * time.Second
	issuanceTimeout = 60 * time.Second
)

// rejection is a terminal error state of the request state machine. The
// message strings are part of the deployed wire format; the underlying
// cause stays in the logs.
type rejection struct {
	statusCode int
	message    string
	outcome    string
}

var (
	rejectInvalidRequest = rejection{http.StatusBadRequest, "invalid request", metrics.OutcomeInvalidRequest}
	rejectNoThingName    = rejection{http.StatusBadRequest, "no thing name", metrics.OutcomeInvalidRequest}
	rejectNoSignature    = rejection{http.StatusBadRequest, "no sig", metrics.OutcomeInvalidRequest}
	rejectBadSignature   = rejection{http.StatusUnauthorized, "wrong sig", metrics.OutcomeBadSignature}
	rejectNotEligible    = rejection{http.StatusForbidden, "you not", metrics.OutcomeNotEligible}
	rejectNoLocation     = rejection{http.StatusBadRequest, "no location", metrics.OutcomeNoLocation}
	rejectIssuance       = rejection{http.StatusBadGateway, "provisioning failed", metrics.OutcomeIssuanceFailed}
	rejectInternal       = rejection{http.StatusInternalServerError, "provisioning failed", metrics.OutcomeInternalFailure}
)

// Handler is the provisioning broker: it orchestrates signature
// verification, enrollment gatekeeping, region selection, and credential
// issuance into one request/response cycle. Handlers are stateless; all
// shared state lives behind the registry and issuer interfaces, so any
// number of requests may run in parallel.
type Handler struct {
	verifier      interfaces.SignatureVerifier
	registry      interfaces.EnrollmentRegistry
	locator       interfaces.Locator
	catalog       *regions.Catalog
	issuer        interfaces.CredentialIssuer
	defaultRegion interfaces.Region
	log           *slog.Logger
}

// NewHandler creates the broker handler with its collaborators.
// defaultRegion names the catalog entry used when geolocation has no
// data for the caller's address.
func NewHandler(
	verifier interfaces.SignatureVerifier,
	registry interfaces.EnrollmentRegistry,
	locator interfaces.Locator,
	catalog *regions.Catalog,
	issuer interfaces.CredentialIssuer,
	defaultRegion string,
	log *slog.Logger,
) (*Handler, error) {
	def, ok := catalog.ByName(defaultRegion)
	if !ok {
		return nil, fmt.Errorf("default region %q is not in the catalog", defaultRegion)
	}

	return &Handler{
		verifier:      verifier,
		registry:      registry,
		locator:       locator,
		catalog:       catalog,
		issuer:        issuer,
		defaultRegion: def,
		log:           log,
	}, nil
}

// RegisterRoutes mounts the provisioning endpoint on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/v1/provision", h.HandleProvision)
}

// HandleProvision processes a device enrollment request.
//
// The request moves through a linear state machine: authenticate the
// signature, check enrollment eligibility, locate the caller, select
// the nearest region, issue credentials, record the enrollment. The
// authentication gate always runs first; no registry or issuer call can
// be reached without a verified signature. Early exits return a
// well-formed error body and never any credential material.
//
// Two outcomes deserve note. A missing X-Forwarded-For header rejects
// the request (the transport is misconfigured), but the geolocation
// provider having no data for the address does not: the request
// degrades to the configured default region and still succeeds. And a
// registry update failure after successful issuance is logged without
// failing the response, because the device already holds valid
// credentials at that point.
func (h *Handler) HandleProvision(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.With(slog.String("requestID", uuid.NewString()))

	var req api.ProvisioningRequest
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		reqLog.Warn("Failed to decode request body", "err", err)
		h.writeRejection(w, rejectInvalidRequest)
		return
	}

	if req.ThingName == "" {
		reqLog.Warn("Request has no device name")
		h.writeRejection(w, rejectNoThingName)
		return
	}
	if req.ThingNameSig == "" {
		reqLog.Warn("Request has no signature", slog.String("device", req.ThingName))
		h.writeRejection(w, rejectNoSignature)
		return
	}

	name, err := interfaces.NewDeviceName(req.ThingName)
	if err != nil {
		reqLog.Warn("Invalid device name", "err", err)
		h.writeRejection(w, rejectInvalidRequest)
		return
	}
	reqLog = reqLog.With(slog.String("device", name.String()))

	var csr cryptoutils.CSRPEM
	if req.CSR != "" {
		csr = cryptoutils.CSRPEM(req.CSR)
		if err := csr.Validate(); err != nil {
			reqLog.Warn("Invalid CSR in request", "err", err)
			h.writeRejection(w, rejectInvalidRequest)
			return
		}
	}

	// Authentication gate. Nothing below may run without it.
	if !h.verifier.Verify(name.String(), req.ThingNameSig) {
		reqLog.Warn("Signature verification failed")
		h.writeRejection(w, rejectBadSignature)
		return
	}

	regCtx, cancel := context.WithTimeout(r.Context(), registryTimeout)
	status, err := h.registry.Status(regCtx, name)
	cancel()
	switch {
	case errors.Is(err, interfaces.ErrRecordNotFound):
		reqLog.Warn("Device is not marked for provisioning")
		h.writeRejection(w, rejectNotEligible)
		return
	case err != nil:
		reqLog.Error("Failed to read enrollment registry", "err", err)
		h.writeRejection(w, rejectInternal)
		return
	case status != interfaces.StatusUnprovisioned:
		reqLog.Warn("Device is not eligible for provisioning", slog.String("status", string(status)))
		h.writeRejection(w, rejectNotEligible)
		return
	}

	sourceAddr := callerAddress(r)
	if sourceAddr == "" {
		reqLog.Warn("Request carries no source address metadata")
		h.writeRejection(w, rejectNoLocation)
		return
	}

	region, distanceKm, message := h.selectRegion(r.Context(), reqLog, sourceAddr)

	issueCtx, cancel := context.WithTimeout(r.Context(), issuanceTimeout)
	cred, err := h.issuer.Issue(issueCtx, name, region.Name, csr)
	cancel()
	if err != nil {
		reqLog.Error("Credential issuance failed", "err", err, slog.String("region", region.Name))
		h.writeRejection(w, rejectIssuance)
		return
	}

	// The device holds valid credentials from here on; a bookkeeping
	// failure must not invalidate them.
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), registryTimeout)
	if err := h.registry.MarkProvisioned(markCtx, name, region.Name, time.Now()); err != nil {
		reqLog.Error("Failed to record enrollment after issuance", "err", err, slog.String("region", region.Name))
		metrics.RegistryUpdateFailures.Inc()
	}
	cancel()

	resp := &api.ProvisioningResponse{
		Status:          api.StatusSuccess,
		Region:          region.Name,
		DistanceKm:      distanceKm,
		EndpointAddress: cred.EndpointAddress,
		CertificatePem:  string(cred.Certificate),
		PrivateKey:      string(cred.PrivateKey),
		Message:         message,
	}

	reqLog.Info("Device provisioned",
		slog.String("region", region.Name),
		slog.String("certificateID", cred.CertificateID))
	metrics.ProvisionRequests.WithLabelValues(metrics.OutcomeSuccess).Inc()
	writeJSON(w, http.StatusOK, resp)
}

// selectRegion geolocates the source address and picks the nearest
// catalog region. When the provider has no data (or cannot be reached)
// the statically configured default region is used instead; the
// returned message documents the fallback for the caller.
func (h *Handler) selectRegion(ctx context.Context, log *slog.Logger, sourceAddr string) (interfaces.Region, *float64, string) {
	locateCtx, cancel := context.WithTimeout(ctx, locateTimeout)
	defer cancel()

	point, found, err := h.locator.Locate(locateCtx, sourceAddr)
	if err != nil {
		log.Warn("Geolocation lookup failed, using default region", "err", err)
		found = false
	}

	if !found {
		log.Info("No coordinates for source address, using default region",
			slog.String("sourceAddr", sourceAddr),
			slog.String("region", h.defaultRegion.Name))
		metrics.DefaultRegionFallbacks.Inc()
		message := fmt.Sprintf("no latitude or longitude for IP %s, using default region %s", sourceAddr, h.defaultRegion.Name)
		return h.defaultRegion, nil, message
	}

	match := h.catalog.Nearest(point)
	log.Info("Nearest region selected",
		slog.String("region", match.Region.Name),
		slog.Float64("distanceKm", match.DistanceKm))
	return match.Region, &match.DistanceKm, ""
}

// callerAddress extracts the device's source address from the forwarded
// header: the first entry of the comma-separated list, whitespace
// stripped.
func callerAddress(r *http.Request) string {
	header := r.Header.Get(forwardedForHeader)
	if header == "" {
		return ""
	}

	first, _, _ := strings.Cut(header, ",")
	return strings.Join(strings.Fields(first), "")
}

func (h *Handler) writeRejection(w http.ResponseWriter, rej rejection) {
	metrics.ProvisionRequests.WithLabelValues(rej.outcome).Inc()
	writeJSON(w, rej.statusCode, &api.ProvisioningResponse{
		Status:  api.StatusError,
		Message: rej.message,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
