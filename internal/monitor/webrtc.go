package monitor

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"gopkg.in/hraban/opus.v2"

	"github.com/anandp/direnderer/internal/log"
)

// FrameDuration is the WriteSample duration monitor frames carry;
// pipeline callers are expected to hand Tap.Push 20ms frames.
const FrameDuration = 20 * time.Millisecond

// Handler serves WebRTC SDP negotiation for low-latency Opus
// monitoring of whatever the tap is currently receiving. SampleRate
// and Channels must match the PCM frames pushed into tap (Opus only
// accepts 8/12/16/24/48kHz) and are refreshed by SetFormat whenever
// the engine's operative track format changes.
type Handler struct {
	tap *Tap

	mu         sync.Mutex
	peers      []*webrtc.PeerConnection
	sampleRate int
	channels   int
}

func NewHandler(tap *Tap) *Handler {
	return &Handler{tap: tap, sampleRate: 48000, channels: 2}
}

// SetFormat updates the rate/channels new peers' Opus encoders use.
// Existing peers keep whatever format they were negotiated with.
func (h *Handler) SetFormat(sampleRate, channels int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sampleRate = sampleRate
	h.channels = channels
}

func (h *Handler) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		http.Error(w, "invalid SDP offer", http.StatusBadRequest)
		return
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		http.Error(w, "create peer connection failed", http.StatusInternalServerError)
		return
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio",
		"direnderer-monitor",
	)
	if err != nil {
		pc.Close()
		http.Error(w, "create audio track failed", http.StatusInternalServerError)
		return
	}
	if _, err := pc.AddTrack(track); err != nil {
		pc.Close()
		http.Error(w, "add track failed", http.StatusInternalServerError)
		return
	}
	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		http.Error(w, "set remote description failed", http.StatusBadRequest)
		return
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		http.Error(w, "create answer failed", http.StatusInternalServerError)
		return
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		http.Error(w, "set local description failed", http.StatusInternalServerError)
		return
	}

	<-webrtc.GatheringCompletePromise(pc)

	h.mu.Lock()
	h.peers = append(h.peers, pc)
	rate, channels := h.sampleRate, h.channels
	h.mu.Unlock()

	log.Infof("monitor: WebRTC peer connected (total: %d)", h.PeerCount())

	go h.streamToPeer(pc, track, rate, channels)

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		if s == webrtc.PeerConnectionStateFailed ||
			s == webrtc.PeerConnectionStateClosed ||
			s == webrtc.PeerConnectionStateDisconnected {
			h.removePeer(pc)
			pc.Close()
			log.Infof("monitor: WebRTC peer disconnected (remaining: %d)", h.PeerCount())
		}
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(pc.LocalDescription())
}

func (h *Handler) streamToPeer(pc *webrtc.PeerConnection, track *webrtc.TrackLocalStaticSample, sampleRate, channels int) {
	listener := h.tap.Subscribe()
	defer h.tap.Unsubscribe(listener)

	enc, err := opus.NewEncoder(sampleRate, channels, opus.AppAudio)
	if err != nil {
		log.Warnf("monitor: opus encoder error: %v", err)
		return
	}
	enc.SetBitrate(128000)

	opusBuf := make([]byte, 4000)
	for {
		select {
		case <-listener.done:
			return
		case frame, ok := <-listener.C:
			if !ok {
				return
			}
			n, err := enc.Encode(frame, opusBuf)
			if err != nil {
				log.Warnf("monitor: opus encode error: %v", err)
				continue
			}
			if err := track.WriteSample(media.Sample{Data: opusBuf[:n], Duration: FrameDuration}); err != nil {
				return
			}
		}
	}
}

func (h *Handler) removePeer(pc *webrtc.PeerConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, p := range h.peers {
		if p == pc {
			h.peers = append(h.peers[:i], h.peers[i+1:]...)
			return
		}
	}
}
