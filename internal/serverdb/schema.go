package serverdb

// ServerSchemaVersion is the schema version after every migration has run.
const ServerSchemaVersion = 3

const serverSchema = `
CREATE TABLE IF NOT EXISTS tipos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    nome TEXT NOT NULL UNIQUE COLLATE NOCASE
);

CREATE TABLE IF NOT EXISTS ativos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    nome TEXT NOT NULL UNIQUE COLLATE NOCASE,
    tipo_id INTEGER REFERENCES tipos(id) ON DELETE SET NULL,
    cor_padrao TEXT NOT NULL DEFAULT '#007bff',
    bateria_fabricacao TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS checklist_perguntas (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    tipo_id INTEGER NOT NULL REFERENCES tipos(id) ON DELETE CASCADE,
    texto TEXT NOT NULL,
    ordem INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS checklist_respostas (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    equipamento TEXT NOT NULL,
    operador TEXT NOT NULL,
    data_hora_local TEXT NOT NULL,
    recebido_em TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS checklist_itens (
    resposta_id INTEGER NOT NULL REFERENCES checklist_respostas(id) ON DELETE CASCADE,
    pergunta_id INTEGER NOT NULL,
    texto TEXT NOT NULL,
    conforme INTEGER NOT NULL,
    observacao TEXT NOT NULL DEFAULT '',
    foto TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (resposta_id, pergunta_id)
);

CREATE TABLE IF NOT EXISTS areas (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    nome TEXT NOT NULL,
    geometria TEXT NOT NULL,
    cor TEXT NOT NULL DEFAULT '#FFC107'
);

CREATE INDEX IF NOT EXISTS idx_perguntas_tipo ON checklist_perguntas(tipo_id, ordem);
CREATE INDEX IF NOT EXISTS idx_respostas_equipamento ON checklist_respostas(equipamento);
`

// Migration upgrades the schema to Version. The base schema above is version 1.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations in ascending version order.
var Migrations = []Migration{
	{
		Version:     2,
		Description: "Add rate_limit_events table",
		SQL: `CREATE TABLE IF NOT EXISTS rate_limit_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ip TEXT NOT NULL,
			endpoint_class TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_rate_limit_events_ip ON rate_limit_events(ip, created_at);`,
	},
	{
		Version:     3,
		Description: "Index checklist items by question",
		SQL:         `CREATE INDEX IF NOT EXISTS idx_itens_pergunta ON checklist_itens(pergunta_id);`,
	},
}
