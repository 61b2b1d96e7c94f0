package service

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/bnb-chain/blob-store/logging"
)

// maxBodyBytes bounds request bodies: a full put request carries MaxBlobsRequest
// sidecars of a few hex encoded blobs each.
const maxBodyBytes = 512 << 20

// Server exposes a Blob service over HTTP with JSON bodies.
type Server struct {
	httpAddress string
	service     Blob
	httpServer  *http.Server
}

func NewServer(address string, service Blob) *Server {
	return &Server{
		httpAddress: address,
		service:     service,
	}
}

func (s *Server) Start() {
	go s.serve()
}

// Handler returns the router serving the blob endpoints.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Path("/blobs/v1").Methods(http.MethodPost).HandlerFunc(s.getBlobsV1)
	router.Path("/blobs/v2").Methods(http.MethodPost).HandlerFunc(s.getBlobsV2)
	router.Path("/sidecars").Methods(http.MethodPost).HandlerFunc(s.putSidecars)
	router.Path("/sidecars/query").Methods(http.MethodPost).HandlerFunc(s.getSidecars)
	return router
}

func (s *Server) serve() {
	s.httpServer = &http.Server{
		Addr:    s.httpAddress,
		Handler: s.Handler(),
	}
	if err := s.httpServer.ListenAndServe(); err != nil {
		logging.Logger.Errorf("failed to listen and serve, err=%s", err.Error())
		panic(err)
	}
}

func (s *Server) getBlobsV1(w http.ResponseWriter, r *http.Request) {
	var hashes []common.Hash
	if !decodeBody(w, r, &hashes) {
		return
	}
	result, err := s.service.GetBlobsV1(hashes)
	writeResult(w, result, err)
}

func (s *Server) getBlobsV2(w http.ResponseWriter, r *http.Request) {
	var hashes []common.Hash
	if !decodeBody(w, r, &hashes) {
		return
	}
	result, err := s.service.GetBlobsV2(hashes)
	writeResult(w, result, err)
}

func (s *Server) getSidecars(w http.ResponseWriter, r *http.Request) {
	var hashes []common.Hash
	if !decodeBody(w, r, &hashes) {
		return
	}
	sidecars, err := s.service.GetSidecars(hashes)
	if err != nil {
		writeResult(w, nil, err)
		return
	}
	result := make([]*Sidecar, len(sidecars))
	for i, sc := range sidecars {
		result[i] = NewSidecarJSON(sc)
	}
	writeResult(w, result, nil)
}

func (s *Server) putSidecars(w http.ResponseWriter, r *http.Request) {
	var items []*TxSidecar
	if !decodeBody(w, r, &items) {
		return
	}
	writeResult(w, struct{}{}, s.service.PutSidecars(items))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeResult(w, nil, BadRequestWithError(err))
		return false
	}
	return true
}

func writeResult(w http.ResponseWriter, result interface{}, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		svcErr, ok := err.(Err)
		if !ok {
			svcErr = InternalErrorWithError(err)
		}
		status := http.StatusInternalServerError
		if svcErr.Code == ErrInvalidParams.Code || svcErr.Code == ErrTooLargeRequest.Code {
			status = http.StatusBadRequest
		}
		w.WriteHeader(status)
		result = svcErr
	}
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logging.Logger.Errorf("failed to write response, err=%s", err.Error())
	}
}
