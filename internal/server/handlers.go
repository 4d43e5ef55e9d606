package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spectralgo/kpmcalc/internal/calibration"
	"github.com/spectralgo/kpmcalc/internal/kpm"
	"github.com/spectralgo/kpmcalc/internal/lattice"
	"github.com/spectralgo/kpmcalc/internal/scalar"
	"github.com/spectralgo/kpmcalc/internal/sparse"
)

// handleHealth responds to health check requests.
// It returns a 200 OK status with a JSON payload indicating the service is healthy.
//
// Parameters:
//   - w: The HTTP response writer.
//   - r: The HTTP request.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	response := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}

	s.writeJSONResponse(w, http.StatusOK, response)
}

// handleSpectrum returns the handler for one spectral query endpoint.
// The handler parses the JSON request body, builds the requested operator,
// runs the query under the request timeout, and replies with the spectrum.
//
// Parameters:
//   - query: The query kind this endpoint answers ("ldos", "dos" or "greens").
func (s *Server) handleSpectrum(query string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		req, err := s.parseSpectrumRequest(r, query)
		if err != nil {
			s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}

		// The engine runs to completion once started; the timeout is
		// enforced by abandoning the result, exactly as the CLI does.
		type answer struct {
			resp SpectrumResponse
			err  error
		}
		done := make(chan answer, 1)
		go func() {
			var a answer
			a.resp, a.err = s.computeSpectrum(req, query)
			done <- a
		}()

		timer := time.NewTimer(s.timeouts.RequestTimeout)
		defer timer.Stop()
		select {
		case <-r.Context().Done():
			s.writeErrorResponse(w, http.StatusServiceUnavailable, "request canceled")
		case <-timer.C:
			s.writeErrorResponse(w, http.StatusGatewayTimeout, "computation exceeded the request timeout")
		case a := <-done:
			if a.err != nil {
				s.writeErrorResponse(w, http.StatusUnprocessableEntity, a.err.Error())
				return
			}
			s.writeJSONResponse(w, http.StatusOK, a.resp)
		}
	}
}

// parseSpectrumRequest decodes the body, applies configuration defaults for
// omitted optional fields and enforces the request limits.
func (s *Server) parseSpectrumRequest(r *http.Request, query string) (SpectrumRequest, error) {
	var req SpectrumRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}

	// Configuration defaults for omitted fields
	if req.Lattice == "" {
		req.Lattice = s.cfg.Lattice
	}
	if req.Sites == 0 {
		req.Sites = s.cfg.Sites
	}
	if req.Width == 0 {
		req.Width = s.cfg.Width
	}
	if req.Hopping == 0 {
		req.Hopping = s.cfg.Hopping
	}
	if req.EMin == 0 && req.EMax == 0 {
		req.EMin, req.EMax = s.cfg.GridMin, s.cfg.GridMax
	}
	if req.Points == 0 {
		req.Points = s.cfg.Points
	}
	if req.Broadening == 0 {
		req.Broadening = s.cfg.Broadening
	}
	if req.Kernel == "" {
		req.Kernel = s.cfg.Kernel
	}
	if req.Lambda == 0 {
		req.Lambda = s.cfg.Lambda
	}
	if req.NumRandom == 0 {
		req.NumRandom = s.cfg.NumRandom
	}
	if req.Format == "" {
		req.Format = s.cfg.Format
	}
	if query == "greens" && len(req.Cols) == 0 {
		req.Cols = []int{req.Row}
	}

	sc := s.securityConfig
	switch {
	case req.Sites < 1:
		return req, fmt.Errorf("'sites' must be at least 1")
	case req.Sites > sc.MaxSites:
		return req, fmt.Errorf("'sites' exceeds maximum allowed (%d). This limit prevents resource exhaustion", sc.MaxSites)
	case req.Lattice == "square" && req.Width > 0 && req.Sites*req.Width > sc.MaxSites:
		return req, fmt.Errorf("lattice size %dx%d exceeds maximum allowed (%d sites)", req.Sites, req.Width, sc.MaxSites)
	case req.Points < 1 || req.Points > sc.MaxPoints:
		return req, fmt.Errorf("'points' must be between 1 and %d", sc.MaxPoints)
	case req.Broadening < sc.MinBroadening:
		return req, fmt.Errorf("'broadening' below minimum allowed (%g). This limit bounds the expansion order", sc.MinBroadening)
	case req.EMin >= req.EMax:
		return req, fmt.Errorf("'emin' must be strictly below 'emax'")
	case req.NumRandom < 1 || req.NumRandom > sc.MaxNumRandom:
		return req, fmt.Errorf("'num_random' must be between 1 and %d", sc.MaxNumRandom)
	}
	return req, nil
}

// computeSpectrum builds the operator described by the request and answers
// the query. The flux model carries complex hoppings; everything else is
// real, so the scalar type is chosen here and the rest of the pipeline is
// generic.
func (s *Server) computeSpectrum(req SpectrumRequest, query string) (SpectrumResponse, error) {
	if req.Lattice == "flux" {
		h, err := lattice.ChainWithFlux(req.Sites, req.Hopping, req.Flux)
		if err != nil {
			return SpectrumResponse{}, err
		}
		return answerQuery(s.cfg.CalibrationProfile, h, req, query)
	}

	var (
		h   *sparse.CSR[float64]
		err error
	)
	switch req.Lattice {
	case "square":
		width := req.Width
		if width == 0 {
			width = req.Sites
		}
		h, err = lattice.Square(req.Sites, width, req.Hopping)
	default:
		h, err = lattice.Chain(req.Sites, req.Hopping, req.Onsite)
	}
	if err != nil {
		return SpectrumResponse{}, err
	}
	return answerQuery(s.cfg.CalibrationProfile, h, req, query)
}

// answerQuery runs one spectral query on the given operator.
func answerQuery[T scalar.Scalar](profilePath string, h *sparse.CSR[T], req SpectrumRequest, query string) (SpectrumResponse, error) {
	kernel, err := kpm.KernelByName(req.Kernel, req.Lambda)
	if err != nil {
		return SpectrumResponse{}, err
	}

	cfg := kpm.DefaultConfig()
	cfg.Kernel = kernel
	cfg.NumRandom = req.NumRandom
	cfg.Seed = req.Seed
	cfg.ParallelStochastic = true
	cfg.Algorithm.Format = calibration.ResolveFormat(req.Format, profilePath, h.Dim(), h.NNZ(), h.MaxRowWidth())

	eng, err := kpm.New(h, cfg)
	if err != nil {
		return SpectrumResponse{}, err
	}

	energies := lattice.EnergyGrid(req.EMin, req.EMax, req.Points)
	resp := SpectrumResponse{Query: query, Energies: energies}

	start := time.Now()
	switch query {
	case "dos":
		resp.Values, err = eng.DOS(energies, req.Broadening)
	case "greens":
		var rows [][]complex128
		rows, err = eng.GreensVector(req.Row, req.Cols, energies, req.Broadening)
		if err == nil {
			resp.GreensReal = make([][]float64, len(rows))
			resp.GreensImag = make([][]float64, len(rows))
			for i, row := range rows {
				re := make([]float64, len(row))
				im := make([]float64, len(row))
				for j, z := range row {
					re[j], im[j] = real(z), imag(z)
				}
				resp.GreensReal[i], resp.GreensImag[i] = re, im
			}
		}
	default:
		// A negative site means the lattice center, matching the CLI.
		site := req.Site
		if site < 0 {
			site = h.Dim() / 2
		}
		resp.Values, err = eng.LDOS(site, energies, req.Broadening)
	}
	if err != nil {
		return SpectrumResponse{}, err
	}

	resp.Duration = time.Since(start).String()
	resp.Report = eng.Report(true)
	return resp, nil
}

// writeJSONResponse helper function to write a JSON response with the correct content type.
//
// Parameters:
//   - w: The HTTP response writer.
//   - statusCode: The HTTP status code to write.
//   - data: The data to be encoded as JSON.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("error encoding JSON response")
	}
}

// writeErrorResponse helper function to write a standardized error response.
//
// Parameters:
//   - w: The HTTP response writer.
//   - statusCode: The HTTP status code to write.
//   - message: The error message to be included in the response body.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	errResp := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	s.writeJSONResponse(w, statusCode, errResp)
}
