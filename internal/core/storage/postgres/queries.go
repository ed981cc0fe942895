package postgres

// SQL for the call store. Intervals travel as integer microseconds.

const (
	queryCallExists      = `SELECT EXISTS (SELECT 1 FROM calls WHERE filename = $1)`
	queryTalkgroupExists = `SELECT EXISTS (SELECT 1 FROM talkgroups WHERE talkgroup = $1)`
	querySourceExists    = `SELECT EXISTS (SELECT 1 FROM sources WHERE src = $1)`

	// queryInsertCall returns no rows when the filename is already stored.
	queryInsertCall = `
		INSERT INTO calls (
			filename, freq, freq_error, signal, noise, source_num, recorder_num,
			tdma_slot, phase2_tdma, start_time, stop_time, emergency, priority,
			mode, duplex, encrypted, call_length, talkgroup, audio_type,
			short_name, transcription
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19::audiotype, $20, $21)
		ON CONFLICT (filename) DO NOTHING
		RETURNING filename
	`

	querySelectCall = `
		SELECT
			filename, freq, freq_error, signal, noise, source_num, recorder_num,
			tdma_slot, phase2_tdma, start_time, stop_time, emergency, priority,
			mode, duplex, encrypted, call_length, talkgroup, audio_type::text,
			short_name, transcription
		FROM calls
		WHERE filename = $1
	`

	queryInsertFreq = `
		INSERT INTO freqlist (call_id, hashed, freq, time, pos, len, error_count, spike_count)
		VALUES ($1, $2, $3, $4, $5 * interval '1 microsecond', $6 * interval '1 microsecond', $7, $8)
		ON CONFLICT (hashed) DO NOTHING
		RETURNING hashed
	`

	querySelectFreq = `
		SELECT
			call_id, hashed, freq, time,
			(EXTRACT(EPOCH FROM pos) * 1000000)::bigint,
			(EXTRACT(EPOCH FROM len) * 1000000)::bigint,
			error_count, spike_count
		FROM freqlist
		WHERE hashed = $1
	`

	queryInsertSrc = `
		INSERT INTO srclist (call_id, hashed, src, time, pos, emergency, signal_system)
		VALUES ($1, $2, $3, $4, $5 * interval '1 microsecond', $6, $7)
		ON CONFLICT (hashed) DO NOTHING
		RETURNING hashed
	`

	querySelectSrc = `
		SELECT
			call_id, hashed, src, time,
			(EXTRACT(EPOCH FROM pos) * 1000000)::bigint,
			emergency, signal_system
		FROM srclist
		WHERE hashed = $1
	`

	queryUpsertTalkgroup = `
		INSERT INTO talkgroups (
			talkgroup, talkgroup_tag, talkgroup_description, talkgroup_group_tag, talkgroup_group
		)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (talkgroup) DO UPDATE SET
			talkgroup_tag         = EXCLUDED.talkgroup_tag,
			talkgroup_description = EXCLUDED.talkgroup_description,
			talkgroup_group_tag   = EXCLUDED.talkgroup_group_tag,
			talkgroup_group       = EXCLUDED.talkgroup_group
	`

	queryUpsertSource = `
		INSERT INTO sources (src, tag)
		VALUES ($1, $2)
		ON CONFLICT (src) DO UPDATE SET tag = COALESCE(EXCLUDED.tag, sources.tag)
	`

	queryNotifyCall = `SELECT pg_notify($1, $2)`

	// queryContractTables lists which schema contract tables exist.
	queryContractTables = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_name IN ('calls', 'freqlist', 'srclist', 'talkgroups', 'sources')
	`
)

// contractTables must all exist before the adapter accepts writes.
var contractTables = []string{"calls", "freqlist", "srclist", "talkgroups", "sources"}

// Foreign key constraint names from the schema contract.
const (
	constraintFreqCall      = "freqlist_call_id_fkey"
	constraintSrcCall       = "srclist_call_id_fkey"
	constraintSrcSource     = "srclist_src_fkey"
	constraintCallTalkgroup = "calls_talkgroup_fkey"
)
