package mysql

import "propfeed/internal/storage/sqlcodec"

const insertPropertiesPrefix = "INSERT INTO properties\n  (" + sqlcodec.Columns + ")\nVALUES "

// Re-imports overwrite the listing but keep its original created_at.
const insertPropertiesOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  title             = VALUES(title),\n" +
	"  developer         = VALUES(developer),\n" +
	"  country           = VALUES(country),\n" +
	"  city              = VALUES(city),\n" +
	"  area              = VALUES(area),\n" +
	"  property_type     = VALUES(property_type),\n" +
	"  bedrooms          = VALUES(bedrooms),\n" +
	"  bathrooms         = VALUES(bathrooms),\n" +
	"  size_sqft         = VALUES(size_sqft),\n" +
	"  price_aed         = VALUES(price_aed),\n" +
	"  original_price    = VALUES(original_price),\n" +
	"  original_currency = VALUES(original_currency),\n" +
	"  completion_date   = VALUES(completion_date),\n" +
	"  status            = VALUES(status),\n" +
	"  images            = VALUES(images),\n" +
	"  amenities         = VALUES(amenities),\n" +
	"  payment_plan      = VALUES(payment_plan),\n" +
	"  source            = VALUES(source),\n" +
	"  updated_at        = VALUES(updated_at)\n"

const insertBatchSQL = `
INSERT INTO import_batches (id, source, row_count, converted_count, created_at)
VALUES (?, ?, ?, ?, ?)
`

const getPropertySQL = "SELECT " + sqlcodec.Columns + " FROM properties WHERE id = ?"
