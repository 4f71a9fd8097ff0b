package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Collections created by the first version of the site use other field names
// (meal_name, recipe_name, img_url, date_joined, subscriber_email), store dates
// as dd/mm/yyyy strings and keep full recipe copies in saved_recipes. Such
// documents decode as usual and are rewritten into the current layout when the
// store connects.

// legacyDateLayout is the dd/mm/yyyy layout of legacy date strings.
const legacyDateLayout = "02/01/2006"

// docTime is stored as a BSON date but also decodes legacy date strings, as
// midnight UTC.
type docTime time.Time

func (t docTime) IsZero() bool {
	return time.Time(t).IsZero()
}

func (t docTime) MarshalBSONValue() (byte, []byte, error) {
	typ, data, err := bson.MarshalValue(time.Time(t))
	return byte(typ), data, err
}

func (t *docTime) UnmarshalBSONValue(typ byte, data []byte) error {
	rv := bson.RawValue{Type: bson.Type(typ), Value: data}
	switch rv.Type {
	case bson.TypeDateTime:
		*t = docTime(rv.Time().UTC())
	case bson.TypeString:
		parsed, err := time.Parse(legacyDateLayout, rv.StringValue())
		if err != nil {
			return fmt.Errorf("invalid legacy date %q: %w", rv.StringValue(), err)
		}
		*t = docTime(parsed)
	case bson.TypeNull, bson.TypeUndefined:
		*t = docTime{}
	default:
		return fmt.Errorf("cannot decode %s into a date", rv.Type)
	}
	return nil
}

// normalize moves legacy fields into their current counterparts.
func (d *recipeDoc) normalize() {
	if d.Meal == "" {
		d.Meal = d.LegacyMeal
	}
	if d.Name == "" {
		d.Name = d.LegacyName
	}
	if d.ImageURL == "" {
		d.ImageURL = d.LegacyImageURL
	}
	d.LegacyMeal, d.LegacyName, d.LegacyImageURL = "", "", ""
}

func (d *savedDoc) normalize() {
	if d.RecipeID == "" && !d.LegacyID.IsZero() {
		d.RecipeID = d.LegacyID.Hex()
	}
	if d.Meal == "" {
		d.Meal = d.LegacyMeal
	}
	if d.Name == "" {
		d.Name = d.LegacyName
	}
	if d.ImageURL == "" {
		d.ImageURL = d.LegacyImageURL
	}
	// legacy copies carry no save time
	if d.SavedAt.IsZero() {
		d.SavedAt = time.Time(d.DateCreated)
	}
	d.LegacyID = bson.ObjectID{}
	d.LegacyMeal, d.LegacyName, d.LegacyImageURL = "", "", ""
}

func (d *userDoc) normalize() {
	if d.JoinDate.IsZero() {
		d.JoinDate = time.Time(d.LegacyJoinDate)
	}
	d.LegacyJoinDate = docTime{}
	if d.SavedRecipes == nil {
		d.SavedRecipes = []savedDoc{}
	}
	for i := range d.SavedRecipes {
		d.SavedRecipes[i].normalize()
	}
}

func (d *subscriberDoc) normalize() {
	if d.Email == "" {
		d.Email = d.LegacyEmail
	}
	d.LegacyEmail = ""
}

func exists(field string) bson.D {
	return bson.D{{Key: field, Value: bson.D{{Key: "$exists", Value: true}}}}
}

var (
	legacyRecipes = bson.D{{Key: "$or", Value: bson.A{
		exists("meal_name"),
		exists("recipe_name"),
		exists("img_url"),
		bson.D{{Key: "date_created", Value: bson.D{{Key: "$type", Value: "string"}}}},
	}}}
	legacyUsers = bson.D{{Key: "$or", Value: bson.A{
		exists("date_joined"),
		exists("saved_recipes._id"),
	}}}
	legacySubscribers = exists("subscriber_email")
)

// upgradeLegacy rewrites legacy documents into the current layout. Documents
// already in the current layout are not touched, so it is safe to run on
// every connect.
func (s *Store) upgradeLegacy(ctx context.Context) error {
	recipes, err := rewrite(ctx, s.recipes, legacyRecipes, func(d *recipeDoc) (bson.ObjectID, any) {
		d.normalize()
		return d.ID, d
	})
	if err != nil {
		return err
	}
	users, err := rewrite(ctx, s.users, legacyUsers, func(d *userDoc) (bson.ObjectID, any) {
		d.normalize()
		return d.ID, d
	})
	if err != nil {
		return err
	}
	subscribers, err := rewrite(ctx, s.subscribers, legacySubscribers, func(d *subscriberDoc) (bson.ObjectID, any) {
		d.normalize()
		if d.CreatedAt.IsZero() {
			d.CreatedAt = d.ID.Timestamp()
		}
		return d.ID, d
	})
	if err != nil {
		return err
	}

	if recipes+users+subscribers > 0 {
		log.Info("Upgraded legacy documents", "recipes", recipes, "users", users, "subscribers", subscribers)
	}
	return nil
}

// rewrite replaces every document of coll matching filter with the value
// returned by upgrade and reports how many were replaced.
func rewrite[T any](ctx context.Context, coll *mongo.Collection, filter bson.D, upgrade func(*T) (bson.ObjectID, any)) (int, error) {
	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to find legacy documents in %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx) //nolint: errcheck

	n := 0
	for cursor.Next(ctx) {
		var doc T
		if err := cursor.Decode(&doc); err != nil {
			return n, fmt.Errorf("failed to decode legacy document in %s: %w", coll.Name(), err)
		}
		id, replacement := upgrade(&doc)
		if _, err := coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, replacement); err != nil {
			return n, fmt.Errorf("failed to upgrade document %s in %s: %w", id.Hex(), coll.Name(), err)
		}
		n++
	}
	return n, cursor.Err()
}
