package event

import "github.com/shpitdev/eventbrite-extractor/pkg/pipeline/schema"

var recordContract = schema.Contract{Fields: []schema.Field{
	{Name: "event_id", Type: schema.TypeString},
	{Name: "title", Type: schema.TypeString},
	{Name: "summary", Type: schema.TypeString, Nullable: true},
	{Name: "start_date", Type: schema.TypeString, Nullable: true},
	{Name: "start_time", Type: schema.TypeString, Nullable: true},
	{Name: "end_date", Type: schema.TypeString, Nullable: true},
	{Name: "end_time", Type: schema.TypeString, Nullable: true},
	{Name: "timezone", Type: schema.TypeString, Nullable: true},
	{Name: "is_online", Type: schema.TypeBoolean},
	{Name: "venue_name", Type: schema.TypeString, Nullable: true},
	{Name: "venue_address", Type: schema.TypeString, Nullable: true},
	{Name: "organizer_name", Type: schema.TypeString, Nullable: true},
	{Name: "organizer_id", Type: schema.TypeString, Nullable: true},
	{Name: "url", Type: schema.TypeString, Nullable: true},
	{Name: "is_free", Type: schema.TypeBoolean},
	{Name: "price", Type: schema.TypeString, Nullable: true},
	{Name: "currency", Type: schema.TypeString, Nullable: true},
	{Name: "category", Type: schema.TypeString, Nullable: true},
	{Name: "tags", Type: schema.TypeList, Nullable: true},
	{Name: "image_url", Type: schema.TypeString, Nullable: true},
	{Name: "is_cancelled", Type: schema.TypeBoolean},
	{Name: "published", Type: schema.TypeString, Nullable: true},
	{Name: "source_platform", Type: schema.TypeString},
}}

var viewContract = recordContract.Extend(
	schema.Field{Name: "display_price", Type: schema.TypeString},
	schema.Field{Name: "display_date", Type: schema.TypeString},
	schema.Field{Name: "display_location", Type: schema.TypeString},
	schema.Field{Name: "event_type", Type: schema.TypeString},
	schema.Field{Name: "blurb", Type: schema.TypeString, Nullable: true},
)

// RecordContract is the stable column order for exported records.
func RecordContract() schema.Contract { return recordContract.Extend() }

// ViewContract is the stable column order for exported views.
func ViewContract() schema.Contract { return viewContract.Extend() }
