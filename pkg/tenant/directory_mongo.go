package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultMongoCollection is the collection tenants live in.
const DefaultMongoCollection = "tenants"

// MongoDirectory is the MongoDB-backed Directory for deployments that keep
// platform metadata in a document store.
type MongoDirectory struct {
	coll *mongo.Collection
}

// NewMongoDirectory creates a directory on top of an existing database handle.
func NewMongoDirectory(db *mongo.Database) *MongoDirectory {
	return &MongoDirectory{coll: db.Collection(DefaultMongoCollection)}
}

// tenantDoc is the stored document form of a Tenant.
type tenantDoc struct {
	ID               int64                 `bson:"_id"`
	Identifier       string                `bson:"identifier"`
	ConnectionString string                `bson:"connection_string"`
	Active           bool                  `bson:"active"`
	Plan             string                `bson:"plan,omitempty"`
	PlanExpiresAt    *time.Time            `bson:"plan_expires_at,omitempty"`
	EnabledModules   map[string]bool       `bson:"enabled_modules,omitempty"`
	Settings         map[string]settingDoc `bson:"settings,omitempty"`
	CreatedAt        time.Time             `bson:"created_at"`
	UpdatedAt        time.Time             `bson:"updated_at"`
}

type settingDoc struct {
	Kind  string `bson:"kind"`
	Value string `bson:"value"`
}

func (d *MongoDirectory) GetByIdentifier(ctx context.Context, identifier string) (*Tenant, error) {
	t, err := d.findOne(ctx, bson.M{"identifier": NormalizeIdentifier(identifier)})
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, ErrTenantInactive
	}
	return t, nil
}

func (d *MongoDirectory) GetByID(ctx context.Context, id int64) (*Tenant, error) {
	return d.findOne(ctx, bson.M{"_id": id})
}

func (d *MongoDirectory) ListActive(ctx context.Context) ([]*Tenant, error) {
	cursor, err := d.coll.Find(ctx, bson.M{"active": true},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	defer cursor.Close(ctx)

	var tenants []*Tenant
	for cursor.Next(ctx) {
		var doc tenantDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode tenant document: %w", err)
		}
		t, err := docToTenant(&doc)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	return tenants, nil
}

func (d *MongoDirectory) SetModuleEnabled(ctx context.Context, tenantID int64, module string, enabled bool) error {
	res, err := d.coll.UpdateOne(ctx, bson.M{"_id": tenantID}, bson.M{
		"$set": bson.M{
			"enabled_modules." + module: enabled,
			"updated_at":                time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("set module flag: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (d *MongoDirectory) SetSetting(ctx context.Context, tenantID int64, key string, value SettingValue) error {
	res, err := d.coll.UpdateOne(ctx, bson.M{"_id": tenantID}, bson.M{
		"$set": bson.M{
			"settings." + key: settingDoc{Kind: string(value.Kind), Value: value.Raw()},
			"updated_at":      time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (d *MongoDirectory) findOne(ctx context.Context, filter bson.M) (*Tenant, error) {
	var doc tenantDoc
	if err := d.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("query tenant: %w", err)
	}
	return docToTenant(&doc)
}

func docToTenant(doc *tenantDoc) (*Tenant, error) {
	t := &Tenant{
		ID:               doc.ID,
		Identifier:       doc.Identifier,
		ConnectionString: doc.ConnectionString,
		Active:           doc.Active,
		Plan:             doc.Plan,
		PlanExpiresAt:    doc.PlanExpiresAt,
		EnabledModules:   doc.EnabledModules,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
	if len(doc.Settings) > 0 {
		t.Settings = make(map[string]SettingValue, len(doc.Settings))
		for k, v := range doc.Settings {
			sv, err := ParseSettingValue(SettingKind(v.Kind), v.Value)
			if err != nil {
				return nil, fmt.Errorf("decode setting %q: %w", k, err)
			}
			t.Settings[k] = sv
		}
	}
	return t, nil
}
