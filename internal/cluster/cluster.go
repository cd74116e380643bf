// Package cluster implements the W6 batch/cluster runner: distributing
// independent workload files across a libp2p peer mesh of analysis workers,
// falling back to a local worker pool when no peers are configured.
//
// Grounded on pkg/p2p/node.go's Node interface and the host construction
// idiom in pkg/p2p/advanced_networking.go (host.Host, protocol.ID,
// network.Stream).
package cluster

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/multiformats/go-multiaddr"

	"github.com/schedcheck/schedcheck/internal/engine"
	"github.com/schedcheck/schedcheck/internal/policy"
	"github.com/schedcheck/schedcheck/internal/workload"
)

// ProtocolID is the libp2p stream protocol batch peers speak: the initiator
// writes the raw workload YAML bytes and closes its write side; the
// responder analyzes the workload and writes back one JSON-encoded Result.
const ProtocolID = protocol.ID("/schedcheck/batch/1.0.0")

// Result is one workload file's outcome, whether produced locally or by a
// remote peer.
type Result struct {
	WorkloadPath string         `json:"workloadPath"`
	Summary      engine.Summary `json:"summary"`
	Err          string         `json:"err,omitempty"`
}

// Host wraps a libp2p host configured to serve ProtocolID.
type Host struct {
	host.Host
	logger *slog.Logger
}

// NewHost starts a libp2p host listening on listenAddr (a multiaddr string,
// e.g. "/ip4/0.0.0.0/tcp/0") and registers the batch stream handler.
func NewHost(listenAddr string, logger *slog.Logger) (*Host, error) {
	h, err := libp2p.New(libp2p.ListenAddrStrings(listenAddr))
	if err != nil {
		return nil, fmt.Errorf("cluster: create libp2p host: %w", err)
	}
	ch := &Host{Host: h, logger: logger}
	h.SetStreamHandler(ProtocolID, ch.handleStream)
	return ch, nil
}

func (h *Host) handleStream(s network.Stream) {
	defer s.Close()
	body, err := readStream(s)
	if err != nil {
		h.logger.Error("cluster: read stream", "error", err)
		return
	}

	result := analyzeBytes("<remote>", body)
	enc := json.NewEncoder(s)
	if err := enc.Encode(result); err != nil {
		h.logger.Error("cluster: write result", "error", err)
	}
}

func readStream(s network.Stream) ([]byte, error) {
	r := bufio.NewReader(s)
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			break
		}
	}
	return buf, nil
}

func analyzeBytes(path string, body []byte) Result {
	w, err := workload.Load(bytes.NewReader(body))
	if err != nil {
		return Result{WorkloadPath: path, Err: err.Error()}
	}
	jobs, groups, spec, hp, err := workload.Expand(w)
	if err != nil {
		return Result{WorkloadPath: path, Err: err.Error()}
	}
	e := engine.New(jobs, groups, policy.EDF{}, engine.Config{}, spec, hp, nil)
	if err := e.Run(context.Background()); err != nil {
		return Result{WorkloadPath: path, Err: err.Error()}
	}
	return Result{WorkloadPath: path, Summary: e.Summary()}
}

// Run analyzes every workload file in paths. With no peer addresses it runs
// every file locally, one goroutine per file, capped at GOMAXPROCS. With
// peers configured, files are distributed round-robin across them over
// ProtocolID streams.
func Run(ctx context.Context, paths []string, peerAddrs []string, logger *slog.Logger) ([]Result, error) {
	if len(peerAddrs) == 0 {
		return runLocal(paths), nil
	}

	h, err := NewHost("/ip4/0.0.0.0/tcp/0", logger)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	peers := make([]peer.AddrInfo, 0, len(peerAddrs))
	for _, addr := range peerAddrs {
		maddr, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			return nil, fmt.Errorf("cluster: invalid peer address %q: %w", addr, err)
		}
		info, err := peer.AddrInfoFromP2pAddr(maddr)
		if err != nil {
			return nil, fmt.Errorf("cluster: invalid peer address %q: %w", addr, err)
		}
		if err := h.Connect(ctx, *info); err != nil {
			return nil, fmt.Errorf("cluster: connect to peer %q: %w", addr, err)
		}
		peers = append(peers, *info)
	}

	results := make([]Result, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		i, path := i, path
		target := peers[i%len(peers)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = runRemote(ctx, h.Host, target.ID, path)
		}()
	}
	wg.Wait()
	return results, nil
}

func runRemote(ctx context.Context, h host.Host, p peer.ID, path string) Result {
	body, err := os.ReadFile(path)
	if err != nil {
		return Result{WorkloadPath: path, Err: err.Error()}
	}

	s, err := h.NewStream(ctx, p, ProtocolID)
	if err != nil {
		return Result{WorkloadPath: path, Err: err.Error()}
	}
	defer s.Close()

	if _, err := s.Write(body); err != nil {
		return Result{WorkloadPath: path, Err: err.Error()}
	}
	if err := s.CloseWrite(); err != nil {
		return Result{WorkloadPath: path, Err: err.Error()}
	}

	var result Result
	if err := json.NewDecoder(s).Decode(&result); err != nil {
		return Result{WorkloadPath: path, Err: err.Error()}
	}
	result.WorkloadPath = path
	return result
}

func runLocal(paths []string) []Result {
	results := make([]Result, len(paths))
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for i, path := range paths {
		i, path := i, path
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			body, err := os.ReadFile(path)
			if err != nil {
				results[i] = Result{WorkloadPath: path, Err: err.Error()}
				return
			}
			results[i] = analyzeBytes(path, body)
		}()
	}
	wg.Wait()
	return results
}
