package Controllers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LogEntry is one line of the request log written by middleware.LoggingMiddleware
type LogEntry struct {
	Timestamp     time.Time     `json:"timestamp"`
	Level         string        `json:"level"`
	Method        string        `json:"method"`
	Path          string        `json:"path"`
	URL           string        `json:"url"`
	Status        int           `json:"status"`
	Latency       time.Duration `json:"latency"`
	IP            string        `json:"ip"`
	UserAgent     string        `json:"user_agent"`
	RequestID     string        `json:"request_id"`
	Error         string        `json:"error,omitempty"`
	UserID        uint          `json:"user_id,omitempty"`
	Username      string        `json:"username,omitempty"`
	ContentLength int64         `json:"content_length"`
}

// LogGroup aggregates the requests of one method and path
type LogGroup struct {
	Path        string     `json:"path"`
	Method      string     `json:"method"`
	Count       int        `json:"count"`
	AvgLatency  float64    `json:"avg_latency_ms"`
	MinLatency  float64    `json:"min_latency_ms"`
	MaxLatency  float64    `json:"max_latency_ms"`
	SuccessRate float64    `json:"success_rate"`
	Logs        []LogEntry `json:"logs"`
}

type LogsResponse struct {
	Groups      []LogGroup `json:"groups"`
	TotalLogs   int        `json:"total_logs"`
	TotalGroups int        `json:"total_groups"`
	Page        int        `json:"page"`
	PageSize    int        `json:"page_size"`
	TotalPages  int        `json:"total_pages"`
	DateFrom    time.Time  `json:"date_from"`
	DateTo      time.Time  `json:"date_to"`
}

// LogsController serves the request log file to managers
type LogsController struct {
	Path string
	Now  func() time.Time
}

func NewLogsController(path string) *LogsController {
	return &LogsController{Path: path, Now: time.Now}
}

// logRange reads date_from and date_to. Both empty means today.
func (c *LogsController) logRange(ctx *fiber.Ctx) (time.Time, time.Time, error) {
	now := c.Now()
	fromStr, toStr := ctx.Query("date_from"), ctx.Query("date_to")
	if fromStr == "" && toStr == "" {
		from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return from, from.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}

	from := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	to := now
	if fromStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", fromStr, now.Location())
		if err != nil {
			return from, to, errors.New("Invalid date_from format. Use YYYY-MM-DD")
		}
		from = parsed
	}
	if toStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", toStr, now.Location())
		if err != nil {
			return from, to, errors.New("Invalid date_to format. Use YYYY-MM-DD")
		}
		to = parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return from, to, nil
}

func pagination(ctx *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.Query("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 50
	}
	return page, pageSize
}

func pageBounds(total, page, pageSize int) (int, int, int) {
	totalPages := (total + pageSize - 1) / pageSize
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)
	return start, end, totalPages
}

// load reads the entries in range. A missing log file is an empty log.
func (c *LogsController) load(ctx *fiber.Ctx) ([]LogEntry, time.Time, time.Time, bool, error) {
	from, to, err := c.logRange(ctx)
	if err != nil {
		return nil, from, to, false, badRequest(ctx, err.Error())
	}
	logs, err := ReadLogFile(c.Path, from, to)
	if err != nil {
		log.Printf("Error reading logs: %v", err)
		return nil, from, to, false, errorJSON(ctx, fiber.StatusInternalServerError, "Failed to read logs", err.Error())
	}
	return logs, from, to, true, nil
}

// ReadLogFile parses the JSON lines of path and keeps entries within [from, to].
func ReadLogFile(path string, from, to time.Time) ([]LogEntry, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []LogEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	logs := []LogEntry{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.Timestamp.Before(from) || entry.Timestamp.After(to) {
			continue
		}
		logs = append(logs, entry)
	}
	return logs, scanner.Err()
}

func filterLogs(logs []LogEntry, pathFilter, methodFilter, statusFilter string) []LogEntry {
	status, statusErr := strconv.Atoi(statusFilter)
	filtered := []LogEntry{}
	for _, entry := range logs {
		if pathFilter != "" && !strings.Contains(strings.ToLower(entry.Path), strings.ToLower(pathFilter)) {
			continue
		}
		if methodFilter != "" && !strings.EqualFold(entry.Method, methodFilter) {
			continue
		}
		if statusFilter != "" && statusErr == nil && entry.Status != status {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

func latencyMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func success(status int) bool {
	return status >= 200 && status < 300
}

// groupLogsByPath groups by method and path, busiest first.
func groupLogsByPath(logs []LogEntry) []LogGroup {
	groupMap := make(map[string]*LogGroup)
	var order []string

	for _, entry := range logs {
		key := fmt.Sprintf("%s %s", entry.Method, entry.Path)
		ms := latencyMs(entry.Latency)
		ok := 0.0
		if success(entry.Status) {
			ok = 1.0
		}

		group, exists := groupMap[key]
		if !exists {
			groupMap[key] = &LogGroup{
				Path:        entry.Path,
				Method:      entry.Method,
				Count:       1,
				AvgLatency:  ms,
				MinLatency:  ms,
				MaxLatency:  ms,
				SuccessRate: ok,
				Logs:        []LogEntry{entry},
			}
			order = append(order, key)
			continue
		}
		group.Count++
		group.Logs = append(group.Logs, entry)
		n := float64(group.Count)
		group.AvgLatency = (group.AvgLatency*(n-1) + ms) / n
		group.MinLatency = min(group.MinLatency, ms)
		group.MaxLatency = max(group.MaxLatency, ms)
		group.SuccessRate = (group.SuccessRate*(n-1) + ok) / n
	}

	groups := make([]LogGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, *groupMap[key])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	return groups
}

// GetLogs lists grouped request logs with pagination and filters
func (c *LogsController) GetLogs(ctx *fiber.Ctx) error {
	logs, from, to, ok, err := c.load(ctx)
	if !ok {
		return err
	}
	page, pageSize := pagination(ctx)

	filtered := filterLogs(logs, ctx.Query("path"), ctx.Query("method"), ctx.Query("status"))
	groups := groupLogsByPath(filtered)
	start, end, totalPages := pageBounds(len(groups), page, pageSize)

	return ctx.JSON(LogsResponse{
		Groups:      groups[start:end],
		TotalLogs:   len(filtered),
		TotalGroups: len(groups),
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		DateFrom:    from,
		DateTo:      to,
	})
}

// GetLogsByPath lists the requests whose path contains :path, newest first
func (c *LogsController) GetLogsByPath(ctx *fiber.Ctx) error {
	path := ctx.Params("path")
	if path == "" {
		return badRequest(ctx, "Path parameter is required")
	}
	logs, from, to, ok, err := c.load(ctx)
	if !ok {
		return err
	}
	page, pageSize := pagination(ctx)

	pathLogs := []LogEntry{}
	for _, entry := range logs {
		if strings.Contains(entry.Path, path) {
			pathLogs = append(pathLogs, entry)
		}
	}
	sort.SliceStable(pathLogs, func(i, j int) bool {
		return pathLogs[i].Timestamp.After(pathLogs[j].Timestamp)
	})
	start, end, totalPages := pageBounds(len(pathLogs), page, pageSize)

	return ctx.JSON(fiber.Map{
		"logs":        pathLogs[start:end],
		"total_logs":  len(pathLogs),
		"page":        page,
		"page_size":   pageSize,
		"total_pages": totalPages,
		"path":        path,
		"date_from":   from,
		"date_to":     to,
	})
}

// GetLogStats summarizes request counts, latency and status codes
func (c *LogsController) GetLogStats(ctx *fiber.Ctx) error {
	logs, from, to, ok, err := c.load(ctx)
	if !ok {
		return err
	}

	var successful, failed int
	var totalLatency, minLatency, maxLatency time.Duration
	methodStats := make(map[string]int)
	statusStats := make(map[string]int)
	pathStats := make(map[string]int)

	for i, entry := range logs {
		if success(entry.Status) {
			successful++
		} else if entry.Status >= 400 {
			failed++
		}
		totalLatency += entry.Latency
		if i == 0 || entry.Latency < minLatency {
			minLatency = entry.Latency
		}
		maxLatency = max(maxLatency, entry.Latency)
		methodStats[entry.Method]++
		statusStats[strconv.Itoa(entry.Status)]++
		pathStats[entry.Path]++
	}

	var avgLatency time.Duration
	successRate := 0.0
	if len(logs) > 0 {
		avgLatency = totalLatency / time.Duration(len(logs))
		successRate = float64(successful) / float64(len(logs)) * 100
	}

	topPaths := make([]fiber.Map, 0, len(pathStats))
	for path, count := range pathStats {
		topPaths = append(topPaths, fiber.Map{"path": path, "count": count})
	}
	sort.Slice(topPaths, func(i, j int) bool {
		ci, cj := topPaths[i]["count"].(int), topPaths[j]["count"].(int)
		if ci != cj {
			return ci > cj
		}
		return topPaths[i]["path"].(string) < topPaths[j]["path"].(string)
	})
	if len(topPaths) > 10 {
		topPaths = topPaths[:10]
	}

	return ctx.JSON(fiber.Map{
		"total_requests":      len(logs),
		"successful_requests": successful,
		"error_requests":      failed,
		"success_rate":        successRate,
		"avg_latency_ms":      latencyMs(avgLatency),
		"min_latency_ms":      latencyMs(minLatency),
		"max_latency_ms":      latencyMs(maxLatency),
		"method_stats":        methodStats,
		"status_stats":        statusStats,
		"top_paths":           topPaths,
		"date_from":           from,
		"date_to":             to,
	})
}
