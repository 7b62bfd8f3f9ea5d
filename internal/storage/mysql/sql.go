package mysql

// Schema statements are applied in order by Migrate; each is idempotent.
var schemaSQL = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
  id          CHAR(36)     NOT NULL PRIMARY KEY,
  host_email  VARCHAR(320) NOT NULL,
  booked      BOOLEAN      NOT NULL DEFAULT FALSE,
  doc         JSON         NOT NULL,
  created_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  KEY idx_rooms_host (host_email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS users (
  email       VARCHAR(320) NOT NULL PRIMARY KEY,
  role        VARCHAR(16)  NOT NULL DEFAULT '',
  name        VARCHAR(255) NOT NULL DEFAULT '',
  image       TEXT         NULL,
  updated_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
  id          CHAR(36)     NOT NULL PRIMARY KEY,
  guest_email VARCHAR(320) NOT NULL,
  host_email  VARCHAR(320) NOT NULL,
  doc         JSON         NOT NULL,
  created_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
  KEY idx_bookings_guest (guest_email),
  KEY idx_bookings_host (host_email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// -----------------------------------------------------------------------------
// ROOMS
// -----------------------------------------------------------------------------

const insertRoomSQL = `INSERT INTO rooms (id, host_email, booked, doc) VALUES (?, ?, ?, ?)`

// Affected rows: 1 inserted, 2 updated, 0 unchanged.
const upsertRoomSQL = `
INSERT INTO rooms (id, host_email, booked, doc)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  host_email = VALUES(host_email),
  booked     = VALUES(booked),
  doc        = VALUES(doc)
`

const deleteRoomSQL = `DELETE FROM rooms WHERE id = ?`

const setRoomBookedSQL = `UPDATE rooms SET booked = ? WHERE id = ?`

const countRoomSQL = `SELECT COUNT(*) FROM rooms WHERE id = ?`

const selectRoomCols = `SELECT id, host_email, booked, doc FROM rooms`

const getRoomSQL = selectRoomCols + ` WHERE id = ?`

const listRoomsSQL = selectRoomCols + ` ORDER BY created_at, id`

const listRoomsByHostSQL = selectRoomCols + ` WHERE host_email = ? ORDER BY created_at, id`

// -----------------------------------------------------------------------------
// USERS
// -----------------------------------------------------------------------------

// Empty values keep the stored column so partial profile updates merge.
const upsertUserSQL = `
INSERT INTO users (email, role, name, image)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  role  = COALESCE(NULLIF(VALUES(role), ''), role),
  name  = COALESCE(NULLIF(VALUES(name), ''), name),
  image = COALESCE(NULLIF(VALUES(image), ''), image)
`

const getUserSQL = `SELECT email, role, name, COALESCE(image, '') FROM users WHERE email = ?`

// -----------------------------------------------------------------------------
// BOOKINGS
// -----------------------------------------------------------------------------

const insertBookingSQL = `INSERT INTO bookings (id, guest_email, host_email, doc) VALUES (?, ?, ?, ?)`

const deleteBookingSQL = `DELETE FROM bookings WHERE id = ?`

const selectBookingCols = `SELECT id, doc FROM bookings`

const getBookingSQL = selectBookingCols + ` WHERE id = ?`

const listBookingsByGuestSQL = selectBookingCols + ` WHERE guest_email = ? ORDER BY created_at, id`

const listBookingsByHostSQL = selectBookingCols + ` WHERE host_email = ? ORDER BY created_at, id`
