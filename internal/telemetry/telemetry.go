// Package telemetry reports recompute performance to InfluxDB. Points are
// queued by the edit path and flushed off the interactive thread; when the
// client is unreachable they go to a gzipped line-protocol backup file.
package telemetry

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/animtools/timewarp/internal/queue"
	"github.com/animtools/timewarp/internal/remap"
)

// Bucket names used by the retiming tool.
const (
	BucketRetime          = "retime_metrics"
	BucketToolPerformance = "tool_performance"
)

// DefaultBucketNames are the InfluxDB buckets ensured on connect.
var DefaultBucketNames = []string{
	BucketRetime,
	BucketToolPerformance,
}

type queuedPoint struct {
	Bucket string
	Point  *influxdb2_write.Point
}

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writers      map[string]influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	BucketNames  []string
	Logger       zerolog.Logger
	BackupPath   string

	pending *queue.Queue[queuedPoint]
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		Writers:     make(map[string]influxdb2_api.WriteAPI),
		IsValid:     false,
		BucketNames: DefaultBucketNames,
		Logger:      log,
		BackupPath:  backupPath,
		pending:     queue.New[queuedPoint](),
	}
}

// Connect establishes a connection to InfluxDB.
func (m *Manager) Connect() error {
	if !viper.GetBool("influx.enabled") {
		return errors.New("influx.enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf(
			"%s://%s:%s",
			viper.GetString("influx.protocol"),
			viper.GetString("influx.host"),
			viper.GetString("influx.port"),
		),
		viper.GetString("influx.token"),
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(context.Background())

	if err != nil || !running {
		m.IsValid = false
		// create backup writer
		if m.BackupWriter == nil {
			m.Logger.Info().Str("backupPath", m.BackupPath).
				Msg("Failed to initialize InfluxDB client, writing to backup file")

			file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("error creating backup file: %v", err)
			}
			m.BackupWriter = gzip.NewWriter(file)
		}
	} else {
		m.IsValid = true
	}

	if m.IsValid {
		err = m.setupOrganizationAndBuckets()
		if err != nil {
			return err
		}
		m.CreateWriters()
		m.Logger.Info().Msg("InfluxDB client initialized")
	} else {
		m.Logger.Warn().Msg("InfluxDB client failed to initialize, using backup writer")
	}

	return nil
}

func (m *Manager) setupOrganizationAndBuckets() error {
	ctx := context.Background()
	orgName := viper.GetString("influx.org")

	// ensure org exists
	_, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		_, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	// get influxOrg
	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Error().Err(err).Str("org", orgName).Msg("Error getting organization")
		return err
	}

	// ensure buckets exist with 90 day retention
	for _, bucket := range m.BucketNames {
		_, err = m.Client.BucketsAPI().FindBucketByName(ctx, bucket)
		if err != nil {
			m.Logger.Info().Str("bucket", bucket).Msg("Bucket not found, creating")

			rule := domain.RetentionRuleTypeExpire
			_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, bucket, domain.RetentionRule{
				Type:         &rule,
				EverySeconds: 60 * 60 * 24 * 90, // 90 days
			})
			if err != nil {
				m.Logger.Error().Err(err).Str("bucket", bucket).Msg("Error creating bucket")
				return err
			}
		}
	}

	return nil
}

// CreateWriters creates write APIs for all configured buckets.
func (m *Manager) CreateWriters() {
	orgName := viper.GetString("influx.org")
	for _, bucket := range m.BucketNames {
		m.Logger.Trace().Str("bucket", bucket).Msg("Creating InfluxDB writer")
		m.Writers[bucket] = m.Client.WriteAPI(orgName, bucket)

		errorsCh := m.Writers[bucket].Errors()
		go func(bucketName string, errorsCh <-chan error) {
			for writeErr := range errorsCh {
				m.Logger.Error().Err(writeErr).Str("bucket", bucketName).
					Msg("Error sending data to InfluxDB")
			}
		}(bucket, errorsCh)
	}

	m.Logger.Debug().Msg("InfluxDB writers initialized")
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(ctx context.Context, bucket string, point *influxdb2_write.Point) error {
	if m.IsValid {
		if _, ok := m.Writers[bucket]; !ok {
			return fmt.Errorf("influxDB bucket '%s' not registered", bucket)
		}
		m.Writers[bucket].WritePoint(point)
	} else {
		if m.BackupWriter == nil {
			return fmt.Errorf("influxDB client not initialized and backup writer not available")
		}

		lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Duration(1*time.Nanosecond))
		_, err := m.BackupWriter.Write([]byte(lineProtocol))
		if err != nil {
			return fmt.Errorf("error writing to InfluxDB backup file: %s", err)
		}
	}

	return nil
}

// RecordRecompute queues one recompute performance point. Called on the
// edit path, so it must not block.
func (m *Manager) RecordRecompute(sessionUID string, pinCount int, stats remap.Stats) {
	point := influxdb2_write.NewPointWithMeasurement("recompute").
		AddTag("session", sessionUID).
		AddField("duration_ms", float64(stats.Duration.Microseconds())/1000.0).
		AddField("samples", stats.Samples).
		AddField("markers", stats.Markers).
		AddField("pins", pinCount).
		SetTime(time.Now())

	m.pending.Push(queuedPoint{Bucket: BucketRetime, Point: point})
}

// RecordCommit queues one commit point.
func (m *Manager) RecordCommit(sessionUID, label string, pinCount int) {
	point := influxdb2_write.NewPointWithMeasurement("commit").
		AddTag("session", sessionUID).
		AddTag("label", label).
		AddField("pins", pinCount).
		SetTime(time.Now())

	m.pending.Push(queuedPoint{Bucket: BucketToolPerformance, Point: point})
}

// PendingCount returns the number of queued, unflushed points.
func (m *Manager) PendingCount() int {
	return m.pending.Len()
}

// Flush drains the pending queue into the client or backup file.
func (m *Manager) Flush(ctx context.Context) error {
	for _, qp := range m.pending.Drain() {
		if err := m.WritePoint(ctx, qp.Bucket, qp.Point); err != nil {
			return err
		}
	}
	if !m.IsValid && m.BackupWriter != nil {
		return m.BackupWriter.Flush()
	}
	return nil
}

// Close flushes pending points and shuts down the client or backup writer.
func (m *Manager) Close() error {
	if err := m.Flush(context.Background()); err != nil {
		return err
	}
	if m.IsValid {
		m.Client.Close()
		return nil
	}
	if m.BackupWriter != nil {
		return m.BackupWriter.Close()
	}
	return nil
}
