package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chen-albert-liang/grading-tool/internal/handler"
	"github.com/chen-albert-liang/grading-tool/internal/model"
	"github.com/chen-albert-liang/grading-tool/internal/ocr"
	"github.com/chen-albert-liang/grading-tool/internal/report"
	"github.com/chen-albert-liang/grading-tool/internal/store"
	"github.com/chen-albert-liang/grading-tool/internal/template"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gradingtool",
		Short: "Grade scanned homework from OCR output against a teacher's answer key",
	}
	root.AddCommand(templateCmd(), gradeCmd(), serveCmd())
	return root
}

// addGradingFlags registers the recognized grading options shared by
// all subcommands.
func addGradingFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64("tolerance", model.DefaultTolerance, "Numeric answer tolerance")
	f.Float64("similarity-threshold", model.DefaultSimilarityThreshold, "Full-credit similarity threshold for formula and text answers")
	f.Bool("partial-credit", true, "Award half credit for near-miss formula answers")
	f.String("point-curve", "2,4,6", "Comma-separated estimated points per assignment third (non-decreasing)")
	f.String("point-values", "", "JSON file mapping question id to max points, overriding the curve")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func templateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Build an answer-key template from the teacher's OCR result",
		RunE:  runTemplate,
	}
	f := cmd.Flags()
	f.StringP("teacher", "t", "", "Path to the teacher's OCR result JSON (required)")
	f.StringP("output", "o", "-", "Template output path (- for stdout)")
	f.String("db", "", "SQLite database path to persist the template (optional)")
	f.String("name", "answer key", "Template name used when persisting")
	addGradingFlags(cmd)

	_ = cmd.MarkFlagRequired("teacher")
	return cmd
}

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade a directory of student OCR results against a template",
		RunE:  runGrade,
	}
	f := cmd.Flags()
	f.String("template", "", "Path to a template JSON built by the template command")
	f.String("db", "", "SQLite database path (template source and report sink)")
	f.StringP("students", "s", "", "Directory of student OCR result JSON files (required)")
	f.StringP("output", "o", "-", "Class report output path (- for stdout)")
	f.IntP("workers", "w", 4, "Students graded concurrently (1 = sequential)")
	addGradingFlags(cmd)

	_ = cmd.MarkFlagRequired("students")
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP grading API",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "gradingtool.db", "SQLite database path")
	addGradingFlags(cmd)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("GRADINGTOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("gradingtool")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/gradingtool")
	v.AddConfigPath("/etc/gradingtool")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// gradingConfig assembles the grading options from flags, environment,
// and config file.
func gradingConfig(v *viper.Viper) (model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Tolerance = v.GetFloat64("tolerance")
	cfg.SimilarityThreshold = v.GetFloat64("similarity-threshold")
	cfg.PartialCredit = v.GetBool("partial-credit")
	cfg.Workers = v.GetInt("workers")

	if curve := v.GetString("point-curve"); curve != "" {
		parsed, err := parsePointCurve(curve)
		if err != nil {
			return cfg, fmt.Errorf("parse point-curve: %w", err)
		}
		cfg.PointCurve = parsed
	}
	if path := v.GetString("point-values"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read point-values: %w", err)
		}
		if err := json.Unmarshal(data, &cfg.PointValues); err != nil {
			return cfg, fmt.Errorf("parse point-values %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parsePointCurve(s string) ([]float64, error) {
	var curve []float64
	for _, part := range strings.Split(s, ",") {
		p, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid point value %q", part)
		}
		curve = append(curve, p)
	}
	return curve, nil
}

func runTemplate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	cfg, err := gradingConfig(v)
	if err != nil {
		return err
	}

	stream, err := ocr.Load(v.GetString("teacher"))
	if err != nil {
		return err
	}

	tpl, err := template.NewBuilder(cfg).Build(stream)
	if err != nil {
		return fmt.Errorf("build template: %w", err)
	}
	slog.Info("template built", "questions", tpl.Len(), "max_score", tpl.MaxScore())

	if dbPath := v.GetString("db"); dbPath != "" {
		db, err := store.New(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		name := v.GetString("name")
		id, err := db.SaveTemplate(name, tpl)
		if err != nil {
			return fmt.Errorf("save template: %w", err)
		}
		if err := db.SetActiveTemplate(id, name); err != nil {
			return fmt.Errorf("record active template: %w", err)
		}
		slog.Info("template saved", "template_id", id, "name", name)
	}

	data, err := json.MarshalIndent(tpl, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}
	return writeOutput(v.GetString("output"), data)
}

func runGrade(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	cfg, err := gradingConfig(v)
	if err != nil {
		return err
	}

	var db *store.Store
	if dbPath := v.GetString("db"); dbPath != "" {
		db, err = store.New(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
	}

	tpl, templateID, err := loadTemplate(v.GetString("template"), db)
	if err != nil {
		return err
	}

	students, err := loadStudents(v.GetString("students"))
	if err != nil {
		return err
	}
	if len(students) == 0 {
		return fmt.Errorf("no student OCR results found in %s", v.GetString("students"))
	}
	slog.Info("grading batch", "students", len(students), "questions", tpl.Len(), "workers", cfg.Workers)

	class := report.GradeClass(tpl, students, cfg)

	if db != nil {
		for _, rep := range class.Students {
			if _, err := db.SaveReport(templateID, rep); err != nil {
				return fmt.Errorf("save report for %s: %w", rep.StudentID, err)
			}
		}
		count, err := db.ReportCount(templateID)
		if err != nil {
			return fmt.Errorf("count reports: %w", err)
		}
		slog.Info("reports persisted", "template_id", templateID, "stored", count)
	}

	data, err := json.MarshalIndent(class, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeOutput(v.GetString("output"), data)
}

// loadTemplate reads the template from a JSON file when given, falling
// back to the database's recorded active template.
func loadTemplate(path string, db *store.Store) (*model.AnswerTemplate, int64, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, 0, fmt.Errorf("read template: %w", err)
		}
		var tpl model.AnswerTemplate
		if err := json.Unmarshal(data, &tpl); err != nil {
			return nil, 0, fmt.Errorf("parse template %s: %w", path, err)
		}
		var id int64
		if db != nil {
			name := filepath.Base(path)
			if id, err = db.SaveTemplate(name, &tpl); err != nil {
				return nil, 0, fmt.Errorf("save template: %w", err)
			}
			if err := db.SetActiveTemplate(id, name); err != nil {
				return nil, 0, fmt.Errorf("record active template: %w", err)
			}
		}
		return &tpl, id, nil
	}
	if db == nil {
		return nil, 0, fmt.Errorf("either --template or --db is required")
	}
	id, _, err := db.ActiveTemplate()
	if err != nil {
		return nil, 0, fmt.Errorf("find active template: %w", err)
	}
	if id == 0 {
		return nil, 0, fmt.Errorf("database holds no template; run the template command first")
	}
	tpl, err := db.GetTemplate(id)
	if err != nil {
		return nil, 0, fmt.Errorf("load template %d: %w", id, err)
	}
	return tpl, id, nil
}

// loadStudents reads every OCR result JSON in dir, one student per
// file. Files that fail to parse are skipped with a warning so one bad
// scan does not sink the batch.
func loadStudents(dir string) ([]report.Student, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(paths)

	var students []report.Student
	for _, path := range paths {
		stream, err := ocr.Load(path)
		if err != nil {
			slog.Warn("skipping unreadable OCR result", "path", path, "error", err)
			continue
		}
		students = append(students, report.Student{
			ID:     studentIDFromPath(path),
			Stream: stream,
		})
	}
	return students, nil
}

// studentIDFromPath derives a student id from an OCR result filename:
// "hw_2_res.json" becomes "hw_2".
func studentIDFromPath(path string) string {
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.TrimSuffix(id, "_res")
}

func writeOutput(outPath string, data []byte) error {
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	cfg, err := gradingConfig(v)
	if err != nil {
		return err
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	h, err := handler.New(db, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server", "addr", addr, "db", v.GetString("db"))
	return http.ListenAndServe(addr, r)
}
