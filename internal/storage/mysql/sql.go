package mysql

const insertHotelSQL = `
INSERT INTO hotels
  (partner, legacy_hotel_id, name, code, type, stars, city, country, address,
   lat, lon, amenities, currency, check_in, check_out, description,
   infant_max_age, child_max_age)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const insertRoomTypeSQL = `
INSERT INTO room_types
  (hotel_id, legacy_room_id, name, code, base_occupancy, max_adults,
   max_children, quantity, pricing)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const insertMealPlanSQL = `
INSERT INTO meal_plans
  (hotel_id, legacy_plan_id, code, name, meals)
VALUES
  (?, ?, ?, ?, ?)
`

const insertMarketSQL = `
INSERT INTO markets
  (hotel_id, legacy_market_id, code, name, countries)
VALUES
  (?, ?, ?, ?, ?)
`

const insertPhotoSQL = `
INSERT INTO hotel_photos
  (hotel_id, legacy_photo_id, reference, position)
VALUES
  (?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// CLEANUP (idempotent re-migration)
// -----------------------------------------------------------------------------

// Children first, then the hotel row; all keyed off the indexed
// (partner, legacy_hotel_id) cross reference.
const deleteChildrenSQLTmpl = `
DELETE FROM %s
WHERE hotel_id IN (SELECT id FROM hotels WHERE partner = ? AND legacy_hotel_id = ?)
`

const deleteHotelSQL = `
DELETE FROM hotels WHERE partner = ? AND legacy_hotel_id = ?
`

// -----------------------------------------------------------------------------
// MIGRATION HISTORY
// -----------------------------------------------------------------------------

const insertRunSQL = `
INSERT INTO migration_runs
  (operation_id, partner, performed_by, legacy_account_id, legacy_account_name,
   status, hotels, started_at, total_hotels, migrated_hotels, failed_hotels,
   total_photos, downloaded_photos)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, 0)
`

const appendRunHotelSQL = `
UPDATE migration_runs
SET hotels = JSON_ARRAY_APPEND(hotels, '$', CAST(? AS JSON))
WHERE id = ?
`

const finalizeRunSQL = `
UPDATE migration_runs
SET status            = ?,
    hotels            = ?,
    completed_at      = ?,
    total_hotels      = ?,
    migrated_hotels   = ?,
    failed_hotels     = ?,
    total_photos      = ?,
    downloaded_photos = ?
WHERE id = ? AND status = 'in_progress'
`

const listRunsSQL = `
SELECT id, operation_id, partner, performed_by, legacy_account_id,
       legacy_account_name, status, hotels, started_at, completed_at,
       total_hotels, migrated_hotels, failed_hotels, total_photos,
       downloaded_photos
FROM migration_runs
WHERE (? = '' OR partner = ?)
ORDER BY started_at DESC, id DESC
LIMIT ?
`
