package storage

const SchemaVersion = "1"

// dropSchema removes every catalog table, children before parents.
const dropSchema = `
DROP TABLE IF EXISTS search_postings;
DROP TABLE IF EXISTS search_terms;
DROP TABLE IF EXISTS entity_search;
DROP TABLE IF EXISTS keywords;
DROP TABLE IF EXISTS certifications;
DROP TABLE IF EXISTS harvest_months;
DROP TABLE IF EXISTS entity_uses;
DROP TABLE IF EXISTS entities;
DROP TABLE IF EXISTS catalog_metadata;
`

const Schema = `
-- Entities: one row per catalog record
CREATE TABLE entities (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    scientific_name TEXT,
    category TEXT NOT NULL,
    origin TEXT NOT NULL,
    color TEXT,
    nutrition_score REAL CHECK (nutrition_score IS NULL OR (nutrition_score >= 0 AND nutrition_score <= 10)),
    efficacy_score REAL CHECK (efficacy_score IS NULL OR (efficacy_score >= 0 AND efficacy_score <= 10)),
    commercial_value REAL CHECK (commercial_value IS NULL OR (commercial_value >= 0 AND commercial_value <= 10)),
    description TEXT,
    detailed_info TEXT,
    region TEXT,
    region_folded TEXT,               -- lowercased region for substring filters
    spacing TEXT,
    climate TEXT,
    soil_type TEXT,
    warning TEXT,
    severity TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX idx_entities_category ON entities(category);
CREATE INDEX idx_entities_origin ON entities(origin);
CREATE INDEX idx_entities_region ON entities(region);
CREATE INDEX idx_entities_region_folded ON entities(region_folded);
CREATE INDEX idx_entities_name ON entities(name);

-- Relation sets: one-to-many children of entities
CREATE TABLE entity_uses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    use_name TEXT NOT NULL,
    UNIQUE (entity_id, use_name),
    FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE
);
CREATE INDEX idx_uses_entity_id ON entity_uses(entity_id);
CREATE INDEX idx_uses_name ON entity_uses(use_name);

CREATE TABLE harvest_months (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    month INTEGER NOT NULL CHECK (month >= 1 AND month <= 12),
    UNIQUE (entity_id, month),
    FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE
);
CREATE INDEX idx_harvest_entity_id ON harvest_months(entity_id);
CREATE INDEX idx_harvest_month ON harvest_months(month, entity_id);

CREATE TABLE certifications (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    certification TEXT NOT NULL,
    UNIQUE (entity_id, certification),
    FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE
);
CREATE INDEX idx_cert_entity_id ON certifications(entity_id);

CREATE TABLE keywords (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    keyword TEXT NOT NULL,
    UNIQUE (entity_id, keyword),
    FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE
);
CREATE INDEX idx_keywords_entity_id ON keywords(entity_id);
CREATE INDEX idx_keywords_keyword ON keywords(keyword);

-- Search mirror: textual projection of entities, exactly one row per entity
CREATE TABLE entity_search (
    entity_id TEXT PRIMARY KEY,
    name TEXT,
    scientific_name TEXT,
    description TEXT,
    detailed_info TEXT,
    region TEXT,
    doc_length INTEGER NOT NULL,      -- weighted number of terms indexed for the entity
    FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE
);

-- Terms dictionary and postings built from the search mirror
CREATE TABLE search_terms (
    term_id INTEGER PRIMARY KEY AUTOINCREMENT,
    term TEXT UNIQUE NOT NULL,
    document_frequency INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE search_postings (
    term_id INTEGER NOT NULL,
    entity_id TEXT NOT NULL,
    term_frequency INTEGER NOT NULL,
    PRIMARY KEY (term_id, entity_id),
    FOREIGN KEY (term_id) REFERENCES search_terms(term_id),
    FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE
);
CREATE INDEX idx_postings_entity ON search_postings(entity_id);

-- Build metadata: build id, timestamps, source
CREATE TABLE catalog_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
