// internal/app/store/geography/geographystore.go
package geographystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/stratarecruit/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrDuplicateProvince = errors.New("a province with this name already exists")
	ErrDuplicateDistrict = errors.New("a district with this name already exists in the province")
	ErrProvinceNotFound  = errors.New("province not found")
	ErrDistrictNotFound  = errors.New("district not found")
	// ErrInconsistentGeography means a district was paired with a province it
	// does not belong to, or a district was given without its province.
	ErrInconsistentGeography = errors.New("district does not belong to the province")
)

type Store struct {
	provinces *mongo.Collection
	districts *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		provinces: db.Collection("provinces"),
		districts: db.Collection("districts"),
	}
}

func (s *Store) CreateProvince(ctx context.Context, name string, lat, lon *float64) (models.Province, error) {
	p := models.Province{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Latitude:  lat,
		Longitude: lon,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.provinces.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Province{}, ErrDuplicateProvince
		}
		return models.Province{}, err
	}
	return p, nil
}

func (s *Store) CreateDistrict(ctx context.Context, provinceID primitive.ObjectID, name string) (models.District, error) {
	if _, err := s.GetProvince(ctx, provinceID); err != nil {
		return models.District{}, err
	}
	d := models.District{
		ID:         primitive.NewObjectID(),
		ProvinceID: provinceID,
		Name:       name,
		NameCI:     text.Fold(name),
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.districts.InsertOne(ctx, d); err != nil {
		if wafflemongo.IsDup(err) {
			return models.District{}, ErrDuplicateDistrict
		}
		return models.District{}, err
	}
	return d, nil
}

func (s *Store) GetProvince(ctx context.Context, id primitive.ObjectID) (models.Province, error) {
	var p models.Province
	err := s.provinces.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return models.Province{}, ErrProvinceNotFound
	}
	return p, err
}

func (s *Store) GetDistrict(ctx context.Context, id primitive.ObjectID) (models.District, error) {
	var d models.District
	err := s.districts.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return models.District{}, ErrDistrictNotFound
	}
	return d, err
}

// ListProvinces returns every province ordered by name.
func (s *Store) ListProvinces(ctx context.Context) ([]models.Province, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.provinces.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Province{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListDistricts returns the districts of one province ordered by name.
func (s *Store) ListDistricts(ctx context.Context, provinceID primitive.ObjectID) ([]models.District, error) {
	return s.findDistricts(ctx, bson.M{"province_id": provinceID})
}

// ListAllDistricts returns every district ordered by name.
func (s *Store) ListAllDistricts(ctx context.Context) ([]models.District, error) {
	return s.findDistricts(ctx, bson.M{})
}

func (s *Store) findDistricts(ctx context.Context, filter bson.M) ([]models.District, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.districts.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.District{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidatePair checks an optional (province, district) assignment.
//
// Both nil is valid. A province alone must exist. A district requires its
// province and must belong to it.
func (s *Store) ValidatePair(ctx context.Context, provinceID, districtID *primitive.ObjectID) error {
	if provinceID == nil && districtID == nil {
		return nil
	}
	if provinceID == nil {
		return ErrInconsistentGeography
	}
	if _, err := s.GetProvince(ctx, *provinceID); err != nil {
		return err
	}
	if districtID == nil {
		return nil
	}
	d, err := s.GetDistrict(ctx, *districtID)
	if err != nil {
		return err
	}
	if d.ProvinceID != *provinceID {
		return ErrInconsistentGeography
	}
	return nil
}

// Names resolves province and district display names; missing IDs map to "".
func (s *Store) Names(ctx context.Context, provinceID, districtID *primitive.ObjectID) (province, district string, err error) {
	if provinceID != nil {
		p, err := s.GetProvince(ctx, *provinceID)
		if err != nil && !errors.Is(err, ErrProvinceNotFound) {
			return "", "", err
		}
		province = p.Name
	}
	if districtID != nil {
		d, err := s.GetDistrict(ctx, *districtID)
		if err != nil && !errors.Is(err, ErrDistrictNotFound) {
			return "", "", err
		}
		district = d.Name
	}
	return province, district, nil
}

// GetOrCreateProvince finds a province by folded name or creates it.
func (s *Store) GetOrCreateProvince(ctx context.Context, name string, lat, lon *float64) (models.Province, bool, error) {
	var p models.Province
	err := s.provinces.FindOne(ctx, bson.M{"name_ci": text.Fold(name)}).Decode(&p)
	if err == nil {
		return p, false, nil
	}
	if err != mongo.ErrNoDocuments {
		return models.Province{}, false, err
	}
	p, err = s.CreateProvince(ctx, name, lat, lon)
	if errors.Is(err, ErrDuplicateProvince) {
		// lost a race with another instance
		err = s.provinces.FindOne(ctx, bson.M{"name_ci": text.Fold(name)}).Decode(&p)
		return p, false, err
	}
	if err != nil {
		return models.Province{}, false, fmt.Errorf("create province %q: %w", name, err)
	}
	return p, true, nil
}

// GetOrCreateDistrict finds a district by province and folded name or creates it.
func (s *Store) GetOrCreateDistrict(ctx context.Context, provinceID primitive.ObjectID, name string) (models.District, bool, error) {
	filter := bson.M{"province_id": provinceID, "name_ci": text.Fold(name)}
	var d models.District
	err := s.districts.FindOne(ctx, filter).Decode(&d)
	if err == nil {
		return d, false, nil
	}
	if err != mongo.ErrNoDocuments {
		return models.District{}, false, err
	}
	d, err = s.CreateDistrict(ctx, provinceID, name)
	if errors.Is(err, ErrDuplicateDistrict) {
		err = s.districts.FindOne(ctx, filter).Decode(&d)
		return d, false, err
	}
	if err != nil {
		return models.District{}, false, fmt.Errorf("create district %q: %w", name, err)
	}
	return d, true, nil
}
