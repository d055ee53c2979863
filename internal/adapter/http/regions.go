package http

import (
	"encoding/json"
	"net/http"

	"github.com/couchcryptid/dengue-data-service/internal/domain"
)

type regionResponse struct {
	Region string `json:"region"`
	Cases  int    `json:"cases"`
	Deaths int    `json:"deaths"`
	Band   string `json:"band"`
	Color  string `json:"color"`
}

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	aggs := s.records.Regions()
	out := make([]regionResponse, 0, len(aggs))
	for _, a := range aggs {
		band := domain.Classify(a.TotalCases)
		out = append(out, regionResponse{
			Region: a.Region,
			Cases:  a.TotalCases,
			Deaths: a.TotalDeaths,
			Band:   band.String(),
			Color:  band.Color(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleChoropleth(w http.ResponseWriter, r *http.Request) {
	if s.boundaries == nil {
		writeError(w, http.StatusNotFound, "no boundary dataset configured")
		return
	}

	data, err := json.Marshal(s.boundaries.Choropleth(s.records.Regions()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
