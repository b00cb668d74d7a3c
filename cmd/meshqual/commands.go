package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/notargets/MeshQual/config"
	"github.com/notargets/MeshQual/mesh"
	"github.com/notargets/MeshQual/meshio"
	"github.com/notargets/MeshQual/objective"
	"github.com/notargets/MeshQual/telemetry"
	"github.com/notargets/MeshQual/utils"
)

var (
	configPath    string
	referencePath string
	metricsAddr   string
	logLevel      string
	outPath       string
	passes        int
)

var rootCmd = &cobra.Command{
	Use:   "meshqual",
	Short: "Target-matrix mesh quality evaluation and smoothing",
	Long: `meshqual reads a tetrahedral or hexahedral mesh, builds a power-mean
objective over target-matrix quality samples and either reports it or moves
the interior vertices to improve it.`,
	SilenceUsage: true,
}

var evalCmd = &cobra.Command{
	Use:   "eval <mesh>",
	Short: "Report the quality objective of a mesh",
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

var smoothCmd = &cobra.Command{
	Use:   "smooth <mesh>",
	Short: "Move the free vertices of a mesh to improve its quality objective",
	Args:  cobra.ExactArgs(1),
	RunE:  runSmooth,
}

// session is the loaded mesh with its assembled objective.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	patch  *mesh.Patch
	asm    *config.Assembly
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if passes > 0 {
		cfg.Smooth.Passes = passes
	}
	return cfg, nil
}

func newSession(meshPath string) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cfg.Log.Logger(os.Stderr)

	var rec telemetry.Recorder
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		if rec, err = telemetry.NewPrometheus(reg); err != nil {
			return nil, err
		}
		serveMetrics(metricsAddr, reg, logger)
	}

	p, err := meshio.ReadMesh(meshPath)
	if err != nil {
		return nil, err
	}
	var reference *mesh.Patch
	if referencePath != "" {
		if reference, err = meshio.ReadMesh(referencePath); err != nil {
			return nil, err
		}
	}
	asm, err := cfg.Build(reference, logger, rec)
	if err != nil {
		return nil, err
	}
	if err := asm.Bind(p); err != nil {
		return nil, err
	}
	logger.Info("mesh loaded", "path", meshPath, "patch", p.String())
	return &session{cfg: cfg, logger: logger, patch: p, asm: asm}, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
}

func runEval(cmd *cobra.Command, args []string) error {
	s, err := newSession(args[0])
	if err != nil {
		return err
	}
	return s.report(cmd.OutOrStdout())
}

// report prints the objective value and the partition layout of the mesh.
func (s *session) report(w io.Writer) error {
	a := s.asm
	v, ok, err := a.Objective.Evaluate(objective.Calculate, s.patch, a.Patches.FreeOnly)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, s.patch)
	if ok {
		fmt.Fprintf(w, "objective: %s p=%g value=%.6g\n", a.Quality.Name(), a.Objective.Power(), v)
	} else {
		fmt.Fprintf(w, "objective: %s p=%g value=undefined (inverted or degenerate sample)\n", a.Quality.Name(), a.Objective.Power())
	}

	layout, err := a.Partitioner(s.patch).BuildPartitions()
	if err != nil {
		return err
	}
	st := layout.PartitionStatistics()
	fmt.Fprintf(w, "partitions: %s n=%d elements min=%d max=%d avg=%.1f imbalance=%.2f\n",
		layout.Strategy, st.NumPartitions, st.MinElements, st.MaxElements, st.AvgElements, st.Imbalance)

	if layout.EToP == nil {
		return nil
	}
	fc, err := utils.NewFaceConnector(s.patch)
	if err != nil {
		return err
	}
	if err := fc.SetPartitions(layout.EToP); err != nil {
		return err
	}
	faces := fc.InterfaceFaces()
	keys := make([][2]int, 0, len(faces))
	for k := range faces {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	for _, k := range keys {
		fmt.Fprintf(w, "interface %d-%d: %d faces\n", k[0], k[1], faces[k])
	}
	return nil
}

func runSmooth(cmd *cobra.Command, args []string) error {
	s, err := newSession(args[0])
	if err != nil {
		return err
	}
	sm, err := newSmoother(s.asm, s.cfg.Smooth, s.logger)
	if err != nil {
		return err
	}
	before, after, err := sm.Run(cmd.Context(), s.patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "objective: %.6g -> %.6g\n", before, after)
	if outPath == "" {
		return nil
	}
	if err := meshio.WriteGmshFile(outPath, s.patch); err != nil {
		return err
	}
	s.logger.Info("mesh written", "path", outPath)
	return nil
}
