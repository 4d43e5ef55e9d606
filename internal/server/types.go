package server

// SpectrumRequest is the JSON body accepted by the spectral endpoints. The
// operator is described declaratively; the server builds it per request so
// the API stays stateless.
type SpectrumRequest struct {
	// Lattice selects the model Hamiltonian: "chain", "square" or "flux".
	Lattice string `json:"lattice"`
	// Sites is the chain length or the x extent of the square lattice.
	Sites int `json:"sites"`
	// Width is the y extent of the square lattice.
	Width int `json:"width,omitempty"`
	// Hopping is the nearest-neighbor hopping amplitude (default 1).
	Hopping float64 `json:"hopping,omitempty"`
	// Onsite is the uniform onsite energy of the chain model.
	Onsite float64 `json:"onsite,omitempty"`
	// Flux is the Peierls phase per hop of the "flux" model, in radians.
	Flux float64 `json:"flux,omitempty"`

	// Site is the target site of LDOS queries. Negative selects the
	// lattice center.
	Site int `json:"site,omitempty"`
	// Row and Cols name the Green's function elements.
	Row  int   `json:"row,omitempty"`
	Cols []int `json:"cols,omitempty"`

	// EMin, EMax and Points define the output energy grid.
	EMin   float64 `json:"emin"`
	EMax   float64 `json:"emax"`
	Points int     `json:"points"`
	// Broadening is the requested energy resolution.
	Broadening float64 `json:"broadening"`

	// Kernel selects the damping kernel ("jackson" or "lorentz").
	Kernel string `json:"kernel,omitempty"`
	// Lambda tunes the Lorentz kernel.
	Lambda float64 `json:"lambda,omitempty"`
	// NumRandom is the number of random realizations for DOS estimation.
	NumRandom int `json:"num_random,omitempty"`
	// Seed seeds the stochastic starters (0 derives one from the clock).
	Seed int64 `json:"seed,omitempty"`
	// Format selects the sparse layout ("csr" or "ell", default "csr").
	Format string `json:"format,omitempty"`
}

// SpectrumResponse is the JSON reply of the spectral endpoints.
type SpectrumResponse struct {
	Query      string      `json:"query"`
	Energies   []float64   `json:"energies"`
	Values     []float64   `json:"values,omitempty"`
	GreensReal [][]float64 `json:"greens_real,omitempty"`
	GreensImag [][]float64 `json:"greens_imag,omitempty"`
	Duration   string      `json:"duration"`
	Report     string      `json:"report"`
	Error      string      `json:"error,omitempty"`
}

// ErrorResponse is the standardized error reply.
type ErrorResponse struct {
	// Error is the HTTP status text.
	Error string `json:"error"`
	// Message describes what went wrong.
	Message string `json:"message"`
}
