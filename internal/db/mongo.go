package db

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/models"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/errors"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const usersCollection = "gitHubUser"

var _ models.UserStore = (*MongoDB)(nil)

// * MongoDB keeps one document per user in the gitHubUser collection
type MongoDB struct {
	client *mongo.Client
	users  *mongo.Collection
	now    func() time.Time
}

func NewMongoDB(ctx context.Context, uri, database string) (*MongoDB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.New(
			"DB_CONNECTION_ERROR",
			"Failed to open mongo connection",
			"Could not initialize mongo client",
			err,
			errors.LevelError,
		)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.New(
			"DB_CONNECTION_ERROR",
			"Failed to verify mongo connection",
			"Mongo ping failed",
			err,
			errors.LevelError,
		)
	}

	m := &MongoDB{
		client: client,
		users:  client.Database(database).Collection(usersCollection),
		now:    time.Now,
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("connected to mongo database %s successfully 🎉", database)
	return m, nil
}

func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	_, err := m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.New(
			"DB_MIGRATION_ERROR",
			"Failed to create username index",
			"Could not ensure the unique username index",
			err,
			errors.LevelError,
		)
	}
	return nil
}

func (m *MongoDB) Close() error {
	if m.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.client.Disconnect(ctx); err != nil {
		return errors.New(
			"DB_CONNECTION_ERROR",
			"Failed to close mongo connection",
			"Error while disconnecting from mongo",
			err,
			errors.LevelWarning,
		)
	}
	return nil
}

func (m *MongoDB) GetUser(ctx context.Context, username string) (*models.GitHubUser, error) {
	key := models.NormalizeUsername(username)

	var user models.GitHubUser
	err := m.users.FindOne(ctx, bson.M{"username": key}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(
			"DB_USER_ERROR",
			"Failed to fetch user",
			fmt.Sprintf("Could not fetch wrapped record for '%s'", key),
			err,
			errors.LevelError,
		)
	}

	return &user, nil
}

// * UpsertUser replaces the whole document so no field of an older record survives a refresh
func (m *MongoDB) UpsertUser(ctx context.Context, username string, metrics models.GitHubMetrics) (*models.GitHubUser, error) {
	key := models.NormalizeUsername(username)
	user := models.GitHubUser{
		Username:      key,
		FetchedAt:     m.now().UTC().Truncate(time.Millisecond),
		SchemaVersion: models.CurrentSchemaVersion,
		Metrics:       metrics,
	}

	_, err := m.users.ReplaceOne(ctx, bson.M{"username": key}, user, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, errors.New(
			"DB_USER_ERROR",
			"Failed to upsert user",
			fmt.Sprintf("Could not upsert wrapped record for '%s'", key),
			err,
			errors.LevelError,
		)
	}

	return &user, nil
}

type averageRow struct {
	TotalCommits  float64 `bson:"totalCommits"`
	LongestStreak float64 `bson:"longestStreak"`
	TotalPRs      float64 `bson:"totalPRs"`
	TotalIssues   float64 `bson:"totalIssues"`
	StarsReceived float64 `bson:"starsReceived"`
	UserCount     int     `bson:"userCount"`
}

func (m *MongoDB) AverageStats(ctx context.Context) (models.AverageStats, error) {
	avg := func(field string) bson.D {
		return bson.D{{Key: "$avg", Value: "$metrics." + field}}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalCommits", Value: avg("totalCommits")},
			{Key: "longestStreak", Value: avg("longestStreak")},
			{Key: "totalPRs", Value: avg("totalPRs")},
			{Key: "totalIssues", Value: avg("totalIssues")},
			{Key: "starsReceived", Value: avg("starsReceived")},
			{Key: "userCount", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := m.users.Aggregate(ctx, pipeline)
	if err != nil {
		return models.AverageStats{}, statsError(err)
	}

	var rows []averageRow
	if err := cursor.All(ctx, &rows); err != nil {
		return models.AverageStats{}, statsError(err)
	}

	// * $group emits nothing for an empty collection
	if len(rows) == 0 {
		return models.AverageStats{}, nil
	}

	row := rows[0]
	return models.AverageStats{
		TotalCommits:  int(math.Round(row.TotalCommits)),
		LongestStreak: int(math.Round(row.LongestStreak)),
		TotalPRs:      int(math.Round(row.TotalPRs)),
		TotalIssues:   int(math.Round(row.TotalIssues)),
		StarsReceived: int(math.Round(row.StarsReceived)),
		UserCount:     row.UserCount,
	}, nil
}

func (m *MongoDB) CountUsers(ctx context.Context) (int, error) {
	count, err := m.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, errors.New(
			"DB_STATS_ERROR",
			"Failed to count users",
			"Error while counting wrapped records",
			err,
			errors.LevelError,
		)
	}
	return int(count), nil
}

func statsError(err error) error {
	return errors.New(
		"DB_STATS_ERROR",
		"Failed to compute averages",
		"Error while aggregating wrapped records",
		err,
		errors.LevelError,
	)
}
