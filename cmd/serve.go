package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jsphweid/strumdex/capture"
	"github.com/jsphweid/strumdex/config"
	"github.com/jsphweid/strumdex/constants"
	"github.com/jsphweid/strumdex/dictionary"
	"github.com/jsphweid/strumdex/model"
	"github.com/jsphweid/strumdex/practice"
	"github.com/jsphweid/strumdex/sequence"
	"github.com/jsphweid/strumdex/sound"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

var listenAddr string

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "address to listen on (default from settings)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the practice session over a JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		mic := capture.Microphone{Rate: float64(settings.Tuner.SampleRate)}
		defer capture.Shutdown()
		sess, closeSession, err := newSession(settings, mic)
		if err != nil {
			return err
		}
		defer closeSession()

		addr := listenAddr
		if addr == "" {
			addr = constants.GetListenAddr(settings.Listen)
		}
		ctx, cancel := interruptContext(cmd)
		defer cancel()
		return serve(ctx, addr, NewRouter(sess, dictionary.Default()))
	},
}

func serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() {
		slog.Info("serve: listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	slog.Info("serve: shutting down")
	return srv.Shutdown(shutdownCtx)
}

type api struct {
	sess *practice.Session
	dict *dictionary.Dictionary
}

// NewRouter exposes sess over HTTP. Cross-origin requests are allowed so a
// browser front end can be served from elsewhere.
func NewRouter(sess *practice.Session, dict *dictionary.Dictionary) http.Handler {
	a := &api{sess: sess, dict: dict}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/status", a.handleStatus).Methods(http.MethodGet)

	router.HandleFunc("/chords", a.handleChords).Methods(http.MethodGet)
	router.HandleFunc("/chords/{key}", a.handleChord).Methods(http.MethodGet)
	router.HandleFunc("/patterns", a.handlePatterns).Methods(http.MethodGet)
	router.HandleFunc("/progressions", a.handleProgressions).Methods(http.MethodGet)

	router.HandleFunc("/chord/play", a.handlePlayChord).Methods(http.MethodPost)
	router.HandleFunc("/sequence/play", a.handlePlaySequence).Methods(http.MethodPost)
	router.HandleFunc("/stop", a.handleStop).Methods(http.MethodPost)

	router.HandleFunc("/sequence", a.handleSequence).Methods(http.MethodGet)
	router.HandleFunc("/sequence", a.handleReplaceSequence).Methods(http.MethodPut)
	router.HandleFunc("/sequence/items", a.handleAddItem).Methods(http.MethodPost)
	router.HandleFunc("/sequence/items/{id}", a.handleUpdateItem).Methods(http.MethodPut)
	router.HandleFunc("/sequence/items/{id}", a.handleRemoveItem).Methods(http.MethodDelete)
	router.HandleFunc("/sequence/items/{id}/alternatives", a.handleAlternatives).Methods(http.MethodGet)
	router.HandleFunc("/sequence/progression", a.handleProgression).Methods(http.MethodPost)

	router.HandleFunc("/settings", a.handleSettings).Methods(http.MethodGet)
	router.HandleFunc("/settings", a.handleUpdateSettings).Methods(http.MethodPatch)

	router.HandleFunc("/tuner", a.handleTuner).Methods(http.MethodGet)
	router.HandleFunc("/tuner/start", a.handleStartTuner).Methods(http.MethodPost)
	router.HandleFunc("/tuner/stop", a.handleStopTuner).Methods(http.MethodPost)

	router.HandleFunc("/tone", a.handleStartTone).Methods(http.MethodPost)
	router.HandleFunc("/tone", a.handleStopTone).Methods(http.MethodDelete)

	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}).Handler(router)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("serve: encoding response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, sequence.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, sound.ErrDeviceUnavailable), errors.Is(err, capture.ErrNoInput):
		status = http.StatusServiceUnavailable
	}
	if status != http.StatusBadRequest {
		slog.Warn("serve: request failed", "status", status, "err", err)
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

// decode reads a JSON body into v. An empty body leaves v as it is.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.sess.Status())
}

func (a *api) handleChords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.dict.Chords())
}

func (a *api) handleChord(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	entry, ok := a.dict.Chord(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: dictionary.ErrUnknownChord.Error() + ": " + key})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *api) handlePatterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.dict.Patterns())
}

func (a *api) handleProgressions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.dict.Progressions())
}

func (a *api) handlePlayChord(w http.ResponseWriter, r *http.Request) {
	var req model.PlayChordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	// playback outlives the request
	if err := a.sess.PlayChord(context.WithoutCancel(r.Context()), req.Chord, req.Variant); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.sess.Status())
}

func (a *api) handlePlaySequence(w http.ResponseWriter, r *http.Request) {
	if err := a.sess.PlaySequence(context.WithoutCancel(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.sess.Status())
}

func (a *api) handleStop(w http.ResponseWriter, r *http.Request) {
	var req model.StopRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.sess.Stop(req.Player); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.sess.Status())
}

func (a *api) handleSequence(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.SequenceResponse{Items: a.sess.Sequence()})
}

func (a *api) handleReplaceSequence(w http.ResponseWriter, r *http.Request) {
	var entries []config.SequenceEntry
	if err := decode(r, &entries); err != nil {
		writeError(w, err)
		return
	}
	items, err := a.sess.ReplaceSequence(entries)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SequenceResponse{Items: items})
}

func (a *api) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req model.ItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var (
		item model.SequenceItem
		err  error
	)
	if req.Position != nil {
		item, err = a.sess.InsertItem(*req.Position, req.Chord, req.Variant)
	} else {
		item, err = a.sess.AppendItem(req.Chord, req.Variant)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (a *api) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req model.ItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	item, err := a.sess.UpdateItem(mux.Vars(r)["id"], req.Chord, req.Variant)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *api) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := a.sess.RemoveItem(mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SequenceResponse{Items: a.sess.Sequence()})
}

func (a *api) handleAlternatives(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	chords, err := a.sess.Alternatives(id)
	if err != nil {
		writeError(w, err)
		return
	}
	var item model.SequenceItem
	for _, it := range a.sess.Sequence() {
		if it.ID == id {
			item = it
		}
	}
	writeJSON(w, http.StatusOK, model.AlternativesResponse{Item: item, Chords: chords})
}

func (a *api) handleProgression(w http.ResponseWriter, r *http.Request) {
	var req model.ProgressionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	items, err := a.sess.LoadProgression(req.Key, req.Progression)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SequenceResponse{Items: items})
}

func (a *api) handleSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.sess.Settings())
}

func (a *api) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch config.Patch
	if err := decode(r, &patch); err != nil {
		writeError(w, err)
		return
	}
	s, err := a.sess.UpdateSettings(patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *api) handleTuner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.sess.Tuner())
}

func (a *api) handleStartTuner(w http.ResponseWriter, r *http.Request) {
	if err := a.sess.StartTuner(context.WithoutCancel(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.sess.Tuner())
}

func (a *api) handleStopTuner(w http.ResponseWriter, r *http.Request) {
	a.sess.StopTuner()
	writeJSON(w, http.StatusOK, a.sess.Tuner())
}

func (a *api) handleStartTone(w http.ResponseWriter, r *http.Request) {
	var req model.ToneRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	freq, err := a.sess.StartReferenceTone(context.WithoutCancel(r.Context()), req.Tone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ToneResponse{Frequency: freq})
}

func (a *api) handleStopTone(w http.ResponseWriter, r *http.Request) {
	a.sess.StopReferenceTone()
	writeJSON(w, http.StatusOK, model.ToneResponse{})
}
