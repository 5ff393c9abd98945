// Package loadtest generates registration and browsing traffic against a
// running KampusKuEvent server and summarizes latency and status codes.
package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// LoadProfile defines different load testing scenarios.
type LoadProfile string

const (
	ProfileLight  LoadProfile = "light"  // 5 req/s, 1 minute
	ProfileMedium LoadProfile = "medium" // 20 req/s, 2 minutes
	ProfileHeavy  LoadProfile = "heavy"  // 50 req/s, 5 minutes
	ProfileRush   LoadProfile = "rush"   // registration opening: 100 req/s, mostly writes
)

// ProfileConfig defines the parameters for a load test.
type ProfileConfig struct {
	RequestsPerSecond int
	Duration          time.Duration
	RampUpTime        time.Duration
	RampDownTime      time.Duration
	ReadWriteRatio    float64 // 0.8 = 80% reads, 20% registrations
}

// LoadProfiles contains predefined load testing scenarios.
var LoadProfiles = map[LoadProfile]ProfileConfig{
	ProfileLight: {
		RequestsPerSecond: 5,
		Duration:          1 * time.Minute,
		RampUpTime:        10 * time.Second,
		RampDownTime:      10 * time.Second,
		ReadWriteRatio:    0.8,
	},
	ProfileMedium: {
		RequestsPerSecond: 20,
		Duration:          2 * time.Minute,
		RampUpTime:        20 * time.Second,
		RampDownTime:      20 * time.Second,
		ReadWriteRatio:    0.8,
	},
	ProfileHeavy: {
		RequestsPerSecond: 50,
		Duration:          5 * time.Minute,
		RampUpTime:        30 * time.Second,
		RampDownTime:      30 * time.Second,
		ReadWriteRatio:    0.7,
	},
	ProfileRush: {
		RequestsPerSecond: 100,
		Duration:          1 * time.Minute,
		ReadWriteRatio:    0.2,
	},
}

// LoadTester orchestrates load testing operations.
type LoadTester struct {
	baseURL     string
	httpClient  *http.Client
	adminHeader string
	adminToken  string
	quota       int
	eventID     int64
	stats       *Statistics
	rng         *rand.Rand
	rngMu       sync.Mutex
}

// NewLoadTester creates a new load tester targeting the specified base URL.
func NewLoadTester(baseURL string) *LoadTester {
	return &LoadTester{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		adminHeader: "X-API-Key",
		quota:       1000,
		stats:       &Statistics{},
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithAdminToken sets the credential used to create the target event.
func (lt *LoadTester) WithAdminToken(header, token string) *LoadTester {
	if header != "" {
		lt.adminHeader = header
	}
	lt.adminToken = token
	return lt
}

// WithEvent registers against an existing event instead of creating one.
func (lt *LoadTester) WithEvent(id int64) *LoadTester {
	lt.eventID = id
	return lt
}

// WithQuota sets the quota of the event created for the run.
func (lt *LoadTester) WithQuota(quota int) *LoadTester {
	lt.quota = quota
	return lt
}

// Statistics tracks load test metrics.
type Statistics struct {
	mu sync.Mutex

	totalRequests   int64
	successRequests int64
	failedRequests  int64

	// Response times in milliseconds
	responseTimes []int64

	// status code -> count; 0 means transport error
	errors map[int]int64

	endpointStats map[string]*EndpointStats

	startTime time.Time
	endTime   time.Time
}

// EndpointStats tracks statistics for a specific endpoint.
type EndpointStats struct {
	count   int64
	total   int64
	times   []int64
	errors  int64
	minTime int64
	maxTime int64
}

// Total returns the number of requests issued.
func (s *Statistics) Total() int64 { return atomic.LoadInt64(&s.totalRequests) }

// Succeeded returns the number of 2xx responses.
func (s *Statistics) Succeeded() int64 { return atomic.LoadInt64(&s.successRequests) }

// StatusCount returns how many non-2xx responses had the given status.
func (s *Statistics) StatusCount(status int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors[status]
}

// Run executes a load test with the specified profile.
func (lt *LoadTester) Run(ctx context.Context, profile LoadProfile) (*Statistics, error) {
	config, exists := LoadProfiles[profile]
	if !exists {
		return nil, fmt.Errorf("unknown profile: %s", profile)
	}

	return lt.RunCustom(ctx, config)
}

// RunCustom executes a load test with a custom configuration.
func (lt *LoadTester) RunCustom(ctx context.Context, config ProfileConfig) (*Statistics, error) {
	if config.RequestsPerSecond <= 0 {
		return nil, errors.New("requests per second must be positive")
	}
	if lt.eventID == 0 {
		id, err := lt.createEvent(ctx)
		if err != nil {
			return nil, fmt.Errorf("create target event: %w", err)
		}
		lt.eventID = id
	}

	lt.stats = &Statistics{
		errors:        make(map[int]int64),
		endpointStats: make(map[string]*EndpointStats),
		startTime:     time.Now(),
	}

	workers := config.RequestsPerSecond * 2
	if workers < 10 {
		workers = 10
	}

	workChan := make(chan workItem, workers*2)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lt.worker(ctx, workChan)
		}()
	}

	go func() {
		defer close(workChan)
		lt.generateWork(ctx, config, workChan)
	}()

	wg.Wait()
	lt.stats.endTime = time.Now()

	return lt.stats, nil
}

type workItem struct {
	method   string
	path     string
	body     any
	endpoint string // for stats tracking
}

type eventInput struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Quota       int    `json:"quota"`
	Description string `json:"description,omitempty"`
}

type registrationInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	EventID int64  `json:"event_id"`
}

func (lt *LoadTester) createEvent(ctx context.Context) (int64, error) {
	payload, err := json.Marshal(eventInput{
		Title:       "Load test " + time.Now().UTC().Format(time.RFC3339),
		Date:        time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02"),
		Location:    "Main Hall",
		Quota:       lt.quota,
		Description: "Created by the load tester",
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, lt.baseURL+"/events", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if lt.adminToken != "" {
		req.Header.Set(lt.adminHeader, lt.adminToken)
	}

	resp, err := lt.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, fmt.Errorf("decode created event: %w", err)
	}
	return created.ID, nil
}

// generateWork produces work items according to the load profile.
func (lt *LoadTester) generateWork(ctx context.Context, config ProfileConfig, workChan chan<- workItem) {
	startTime := time.Now()

	currentRPS := 1
	if config.RampUpTime == 0 {
		currentRPS = config.RequestsPerSecond
	}

	ticker := time.NewTicker(time.Second / time.Duration(currentRPS))
	defer ticker.Stop()

	lastRPS := currentRPS
	totalDuration := config.RampUpTime + config.Duration + config.RampDownTime

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed := time.Since(startTime)
			if elapsed > totalDuration {
				return
			}

			currentRPS = calculateCurrentRPS(elapsed, config)
			if currentRPS != lastRPS {
				ticker.Reset(time.Second / time.Duration(currentRPS))
				lastRPS = currentRPS
			}

			var item workItem
			if lt.randFloat() < config.ReadWriteRatio {
				item = lt.generateReadRequest()
			} else {
				item = lt.generateWriteRequest()
			}

			select {
			case workChan <- item:
			case <-ctx.Done():
				return
			}
		}
	}
}

// calculateCurrentRPS determines the current RPS based on ramp-up/down timing.
func calculateCurrentRPS(elapsed time.Duration, config ProfileConfig) int {
	targetRPS := config.RequestsPerSecond

	if elapsed < config.RampUpTime {
		progress := float64(elapsed) / float64(config.RampUpTime)
		return max(int(float64(targetRPS)*progress), 1)
	}

	steadyEnd := config.RampUpTime + config.Duration
	if elapsed < steadyEnd {
		return targetRPS
	}

	rampDownProgress := elapsed - steadyEnd
	if rampDownProgress < config.RampDownTime {
		progress := float64(rampDownProgress) / float64(config.RampDownTime)
		return max(int(float64(targetRPS)*(1.0-progress)), 1)
	}

	return 1
}

func (lt *LoadTester) randFloat() float64 {
	lt.rngMu.Lock()
	defer lt.rngMu.Unlock()
	return lt.rng.Float64()
}

func (lt *LoadTester) intn(n int) int {
	lt.rngMu.Lock()
	defer lt.rngMu.Unlock()
	return lt.rng.Intn(n)
}

func (lt *LoadTester) generateReadRequest() workItem {
	eventPath := fmt.Sprintf("/events/%d", lt.eventID)
	operations := []workItem{
		{method: http.MethodGet, path: "/healthz", endpoint: "healthz"},
		{method: http.MethodGet, path: "/events", endpoint: "list_events"},
		{method: http.MethodGet, path: eventPath, endpoint: "get_event"},
		{method: http.MethodGet, path: eventPath + "/participants", endpoint: "event_participants"},
		{method: http.MethodGet, path: "/participants", endpoint: "list_participants"},
	}
	return operations[lt.intn(len(operations))]
}

func (lt *LoadTester) generateWriteRequest() workItem {
	id := uuid.NewString()
	return workItem{
		method: http.MethodPost,
		path:   "/participants",
		body: registrationInput{
			Name:    "Load Tester " + id[:8],
			Email:   "load-" + id + "@example.com",
			EventID: lt.eventID,
		},
		endpoint: "register",
	}
}

func (lt *LoadTester) worker(ctx context.Context, workChan <-chan workItem) {
	for {
		select {
		case <-ctx.Done():
			return
		case work, ok := <-workChan:
			if !ok {
				return
			}
			lt.executeRequest(ctx, work)
		}
	}
}

// executeRequest performs an HTTP request and records statistics.
func (lt *LoadTester) executeRequest(ctx context.Context, work workItem) {
	atomic.AddInt64(&lt.stats.totalRequests, 1)

	start := time.Now()

	var reqBody io.Reader
	if work.body != nil {
		jsonData, err := json.Marshal(work.body)
		if err != nil {
			lt.recordError(0, work.endpoint)
			return
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, work.method, lt.baseURL+work.path, reqBody)
	if err != nil {
		lt.recordError(0, work.endpoint)
		return
	}
	if work.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := lt.httpClient.Do(req)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		lt.recordError(0, work.endpoint)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain so the full response time is measured.
	_, _ = io.Copy(io.Discard, resp.Body)

	lt.recordResponse(resp.StatusCode, duration, work.endpoint)
}

func (lt *LoadTester) recordResponse(statusCode int, durationMs int64, endpoint string) {
	lt.stats.mu.Lock()
	defer lt.stats.mu.Unlock()

	lt.stats.responseTimes = append(lt.stats.responseTimes, durationMs)

	ok := statusCode >= 200 && statusCode < 300
	if ok {
		atomic.AddInt64(&lt.stats.successRequests, 1)
	} else {
		atomic.AddInt64(&lt.stats.failedRequests, 1)
		lt.stats.errors[statusCode]++
	}

	epStats := lt.stats.endpointStats[endpoint]
	if epStats == nil {
		epStats = &EndpointStats{minTime: durationMs, maxTime: durationMs}
		lt.stats.endpointStats[endpoint] = epStats
	}
	epStats.count++
	epStats.total += durationMs
	epStats.times = append(epStats.times, durationMs)
	epStats.minTime = min(epStats.minTime, durationMs)
	epStats.maxTime = max(epStats.maxTime, durationMs)
	if !ok {
		epStats.errors++
	}
}

func (lt *LoadTester) recordError(statusCode int, endpoint string) {
	lt.stats.mu.Lock()
	defer lt.stats.mu.Unlock()

	atomic.AddInt64(&lt.stats.failedRequests, 1)
	lt.stats.errors[statusCode]++

	if lt.stats.endpointStats[endpoint] == nil {
		lt.stats.endpointStats[endpoint] = &EndpointStats{}
	}
	lt.stats.endpointStats[endpoint].errors++
}

// Report generates a summary report of the load test.
func (s *Statistics) Report() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	duration := s.endTime.Sub(s.startTime)
	totalReqs := s.totalRequests

	var report bytes.Buffer
	report.WriteString("\n")
	report.WriteString("═══════════════════════════════════════════════════════════════\n")
	report.WriteString("                    LOAD TEST RESULTS                           \n")
	report.WriteString("═══════════════════════════════════════════════════════════════\n\n")

	fmt.Fprintf(&report, "Duration:        %s\n", duration.Round(time.Millisecond))
	fmt.Fprintf(&report, "Total Requests:  %d\n", totalReqs)
	fmt.Fprintf(&report, "Successful:      %d (%.1f%%)\n", s.successRequests, percent(s.successRequests, totalReqs))
	fmt.Fprintf(&report, "Failed:          %d (%.1f%%)\n", s.failedRequests, percent(s.failedRequests, totalReqs))
	if duration > 0 {
		fmt.Fprintf(&report, "Requests/sec:    %.2f\n", float64(totalReqs)/duration.Seconds())
	}
	report.WriteString("\n")

	if len(s.responseTimes) > 0 {
		report.WriteString("Response Times (ms):\n")
		fmt.Fprintf(&report, "  Average:  %d\n", average(s.responseTimes))
		fmt.Fprintf(&report, "  p50:      %d\n", calculatePercentile(s.responseTimes, 0.50))
		fmt.Fprintf(&report, "  p95:      %d\n", calculatePercentile(s.responseTimes, 0.95))
		fmt.Fprintf(&report, "  p99:      %d\n\n", calculatePercentile(s.responseTimes, 0.99))
	}

	if len(s.errors) > 0 {
		codes := make([]int, 0, len(s.errors))
		for code := range s.errors {
			codes = append(codes, code)
		}
		sort.Ints(codes)

		report.WriteString("Errors by Status Code:\n")
		for _, code := range codes {
			label := fmt.Sprintf("%d", code)
			switch code {
			case 0:
				label = "transport"
			case http.StatusBadRequest:
				label = "400 (quota full)"
			case http.StatusTooManyRequests:
				label = "429 (rate limited)"
			}
			fmt.Fprintf(&report, "  %s: %d\n", label, s.errors[code])
		}
		report.WriteString("\n")
	}

	if len(s.endpointStats) > 0 {
		endpoints := make([]string, 0, len(s.endpointStats))
		for endpoint := range s.endpointStats {
			endpoints = append(endpoints, endpoint)
		}
		sort.Strings(endpoints)

		report.WriteString("Per-Endpoint Statistics:\n")
		report.WriteString("─────────────────────────────────────────────────────────────\n")
		fmt.Fprintf(&report, "%-20s %8s %8s %8s %8s %8s\n", "Endpoint", "Count", "Avg(ms)", "p95(ms)", "Min", "Max")
		report.WriteString("─────────────────────────────────────────────────────────────\n")

		for _, endpoint := range endpoints {
			stats := s.endpointStats[endpoint]
			if stats.count == 0 {
				continue
			}
			fmt.Fprintf(&report, "%-20s %8d %8d %8d %8d %8d\n",
				endpoint, stats.count, stats.total/stats.count, calculatePercentile(stats.times, 0.95), stats.minTime, stats.maxTime)
		}
		report.WriteString("\n")
	}

	report.WriteString("═══════════════════════════════════════════════════════════════\n")
	return report.String()
}

func percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func average(times []int64) int64 {
	if len(times) == 0 {
		return 0
	}
	var sum int64
	for _, t := range times {
		sum += t
	}
	return sum / int64(len(times))
}

func calculatePercentile(times []int64, percentile float64) int64 {
	if len(times) == 0 {
		return 0
	}

	sorted := make([]int64, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(float64(len(sorted)) * percentile)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
