package store

const (
	upsertSlot = `
		INSERT INTO slots (key, value, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = CURRENT_TIMESTAMP;`

	getSlot = `
		SELECT value FROM slots WHERE key = $1;`

	deleteSlot = `
		DELETE FROM slots WHERE key = $1;`

	insertDoc = `
		INSERT INTO %s (id, doc) VALUES ($1, $2);`

	insertDocIgnoreConflict = `
		INSERT INTO %s (id, doc) VALUES ($1, $2)
		ON CONFLICT(id) DO NOTHING;`

	getDoc = `
		SELECT doc FROM %s WHERE id = $1;`

	getAllDocs = `
		SELECT doc FROM %s ORDER BY id;`

	updateDoc = `
		UPDATE %s SET doc = $1 WHERE id = $2;`

	deleteAllDocs = `
		DELETE FROM %s;`
)

// Collection table names. The %s placeholders above are only ever filled
// from this fixed list, never from user input.
const (
	tableAccounts     = "accounts"
	tableTransactions = "transactions"
	tableCategories   = "categories"
	tableGoals        = "goals"
	tableAssets       = "assets"
	tableTemplates    = "recurring_templates"
)

// Singleton slot keys.
const (
	slotCapability = "capability"
	slotSettings   = "settings"
)
