package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/hospital-management/internal/api"
	"github.com/hackgods/hospital-management/internal/config"
	"github.com/hackgods/hospital-management/internal/db"
	"github.com/hackgods/hospital-management/internal/hospital"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	PatientLimit int
	ClinicLimit  int
	Days         int
	Password     string
}

type patient struct {
	email string
	token string
}

// DataPool holds the logged-in patients and the clinics they book into.
type DataPool struct {
	Patients []patient
	Clinics  []int64

	mu           sync.RWMutex
	appointments []int64
}

func (dp *DataPool) AddAppointment(id int64) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) Booked() int {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	return len(dp.appointments)
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95, max time.Duration) {
	om.mu.Lock()
	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	pct := func(p int) time.Duration {
		idx := len(latencies) * p / 100
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		return latencies[idx]
	}
	return sum / time.Duration(len(latencies)), pct(50), pct(95), latencies[len(latencies)-1]
}

type Metrics struct {
	Booking  OperationMetrics
	ListOwn  OperationMetrics
	Schedule OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	log     zerolog.Logger
	metrics Metrics
}

func main() {
	cfg := SimConfig{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Book appointments concurrently against a running api-server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.APIBaseURL, "api", "http://localhost:8080", "api-server base URL")
	f.DurationVar(&cfg.Duration, "duration", 30*time.Second, "how long to run")
	f.IntVar(&cfg.Workers, "workers", 10, "concurrent workers")
	f.Float64Var(&cfg.BookingRatio, "booking-ratio", 0.6, "share of operations that book, the rest read")
	f.IntVar(&cfg.PatientLimit, "patients", 50, "patients to log in")
	f.IntVar(&cfg.ClinicLimit, "clinics", 5, "clinics to book into; fewer clinics means more conflicts")
	f.IntVar(&cfg.Days, "days", 3, "days ahead to spread bookings over")
	f.StringVar(&cfg.Password, "password", "password123", "password shared by the seeded patients")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg SimConfig) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if cfg.Workers <= 0 || cfg.Duration <= 0 || cfg.Days <= 0 {
		return fmt.Errorf("workers, duration and days must be positive")
	}

	base, err := config.Load(false)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, base.PostgresDSN, base.PostgresConns)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pgPool.Close()

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    logger,
	}

	sim.pool, err = sim.loadDataPool(ctx, pgPool)
	if err != nil {
		return fmt.Errorf("load data pool: %w", err)
	}
	logger.Info().
		Int("patients", len(sim.pool.Patients)).
		Int("clinics", len(sim.pool.Clinics)).
		Msg("data pool loaded")

	sim.Run()
	sim.PrintReport(os.Stdout)
	return nil
}

// loadDataPool reads patient emails and clinic ids from Postgres, then logs
// every patient in through the API.
func (s *Simulator) loadDataPool(ctx context.Context, pool *pgxpool.Pool) (*DataPool, error) {
	dp := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT email FROM users WHERE role = 'patient' ORDER BY id LIMIT $1`, s.config.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			rows.Close()
			return nil, err
		}
		emails = append(emails, email)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = pool.Query(ctx, `SELECT id FROM clinics ORDER BY id LIMIT $1`, s.config.ClinicLimit)
	if err != nil {
		return nil, fmt.Errorf("load clinics: %w", err)
	}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		dp.Clinics = append(dp.Clinics, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, email := range emails {
		token, err := s.login(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Str("email", email).Msg("login failed, skipping patient")
			continue
		}
		dp.Patients = append(dp.Patients, patient{email: email, token: token})
	}

	if len(dp.Patients) == 0 {
		return nil, fmt.Errorf("no patients logged in")
	}
	if len(dp.Clinics) == 0 {
		return nil, fmt.Errorf("no clinics loaded")
	}
	return dp, nil
}

func (s *Simulator) login(ctx context.Context, email string) (string, error) {
	status, body, err := s.call(ctx, http.MethodPost, "/api/auth/login", "", api.LoginRequest{
		Email:    email,
		Password: s.config.Password,
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("login answered %d", status)
	}
	var tok api.TokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.log.Info().Dur("duration", s.config.Duration).Int("workers", s.config.Workers).Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}
	wg.Wait()

	s.log.Info().Int("booked", s.pool.Booked()).Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for ctx.Err() == nil {
		p := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
		if rng.Float64() < s.config.BookingRatio {
			s.doBooking(ctx, rng, p)
			continue
		}
		if rng.Intn(2) == 0 {
			s.doListOwn(ctx, p)
		} else {
			s.doSchedule(ctx, rng, p)
		}
	}
}

// slot picks an hour between 09:00 and 16:00 on one of the next few days,
// so that workers keep landing on the same doctors at the same time.
func (s *Simulator) slot(rng *rand.Rand) time.Time {
	day := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1+rng.Intn(s.config.Days))
	return day.Add(time.Duration(9+rng.Intn(8)) * time.Hour)
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand, p patient) {
	req := api.CreateAppointmentRequest{
		ClinicID: s.pool.Clinics[rng.Intn(len(s.pool.Clinics))],
		Date:     s.slot(rng).Format(hospital.DateTimeLayout),
	}

	start := time.Now()
	status, body, err := s.call(ctx, http.MethodPost, "/api/appointments", p.token, req)
	latency := time.Since(start)
	if err != nil {
		if ctx.Err() == nil {
			s.metrics.Booking.Record(latency, false, false)
		}
		return
	}

	switch status {
	case http.StatusCreated:
		var created struct {
			ID int64 `json:"id"`
		}
		if json.Unmarshal(body, &created) == nil {
			s.pool.AddAppointment(created.ID)
		}
		s.metrics.Booking.Record(latency, true, false)
	case http.StatusConflict, http.StatusUnprocessableEntity:
		// overlapping booking or a doctor lock held by another worker
		s.metrics.Booking.Record(latency, false, true)
	default:
		s.log.Debug().Int("status", status).Bytes("body", body).Msg("booking failed")
		s.metrics.Booking.Record(latency, false, false)
	}
}

func (s *Simulator) doListOwn(ctx context.Context, p patient) {
	start := time.Now()
	status, _, err := s.call(ctx, http.MethodGet, "/api/appointments/me", p.token, nil)
	if err != nil && ctx.Err() != nil {
		return
	}
	s.metrics.ListOwn.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doSchedule(ctx context.Context, rng *rand.Rand, p patient) {
	clinicID := s.pool.Clinics[rng.Intn(len(s.pool.Clinics))]
	path := fmt.Sprintf("/api/appointments/schedule/clinics/%d?period=week", clinicID)

	start := time.Now()
	status, _, err := s.call(ctx, http.MethodGet, path, p.token, nil)
	if err != nil && ctx.Err() != nil {
		return
	}
	s.metrics.Schedule.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) call(ctx context.Context, method, path, token string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(s.config.APIBaseURL, "/")+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	return resp.StatusCode, raw, err
}

func (s *Simulator) PrintReport(w io.Writer) {
	line := strings.Repeat("=", 72)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "SIMULATION REPORT")
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Duration: %s  Workers: %d  Clinics: %d  Patients: %d\n\n",
		s.config.Duration, s.config.Workers, len(s.pool.Clinics), len(s.pool.Patients))

	printOperationReport(w, "Booking", &s.metrics.Booking)
	printOperationReport(w, "List own appointments", &s.metrics.ListOwn)
	printOperationReport(w, "Clinic schedule", &s.metrics.Schedule)
}

func printOperationReport(w io.Writer, name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}
	share := func(n int64) float64 { return float64(n) / float64(total) * 100 }

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)
	avg, p50, p95, max := om.Stats()

	fmt.Fprintf(w, "%s:\n", name)
	fmt.Fprintf(w, "  Total: %d\n", total)
	fmt.Fprintf(w, "  Success: %d (%.1f%%)\n", success, share(success))
	if conflict > 0 {
		fmt.Fprintf(w, "  Conflicts: %d (%.1f%%)\n", conflict, share(conflict))
	}
	if failed > 0 {
		fmt.Fprintf(w, "  Errors: %d (%.1f%%)\n", failed, share(failed))
	}
	fmt.Fprintf(w, "  Latency: avg=%s p50=%s p95=%s max=%s\n\n",
		avg.Round(time.Millisecond), p50.Round(time.Millisecond),
		p95.Round(time.Millisecond), max.Round(time.Millisecond))
}
