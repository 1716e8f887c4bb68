package walletauth

// Schema contains sql commands to setup the database for walletauth.
const Schema = `
CREATE TABLE IF NOT EXISTS account (
	id VARCHAR(26) PRIMARY KEY,
	email VARCHAR(255) UNIQUE NOT NULL,
	phone VARCHAR(20) NULL,
	password VARCHAR(60) NOT NULL,
	is_tfa_enabled BOOLEAN DEFAULT false,
	tfa_channel VARCHAR(10) NOT NULL DEFAULT 'email',
	created_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp
);
CREATE TABLE IF NOT EXISTS trusted_device (
	account_id VARCHAR(26) REFERENCES account(id) NOT NULL,
	device_hash VARCHAR(128) NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
	PRIMARY KEY (account_id, device_hash)
);
CREATE TABLE IF NOT EXISTS challenge (
	id VARCHAR(26) PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	purpose VARCHAR(20) NOT NULL,
	code_hash VARCHAR(128) NOT NULL,
	is_consumed BOOLEAN DEFAULT false,
	expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
	consumed_at TIMESTAMP WITH TIME ZONE NULL,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp
);
CREATE INDEX IF NOT EXISTS challenge_lookup_idx
	ON challenge (email, purpose, code_hash)
	WHERE is_consumed = false;
CREATE TABLE IF NOT EXISTS login_history (
	token_id VARCHAR(26) PRIMARY KEY,
	account_id VARCHAR(26) REFERENCES account(id) NOT NULL,
	is_revoked BOOLEAN DEFAULT false,
	ip_address VARCHAR(45) NULL,
	expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT current_timestamp
);
`
