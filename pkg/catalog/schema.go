package catalog

import (
	"context"
)

// The coordinator owns its schema, so both drivers get their DDL here
// instead of a separate migration tool. Statements are executed one by
// one (MySQL rejects multi-statement Exec by default).

var schemaMySQL = []string{
	"CREATE TABLE IF NOT EXISTS `layers` (" +
		"`id` BIGINT NOT NULL AUTO_INCREMENT," +
		"`uuid` VARCHAR(36) NOT NULL," +
		"`name` VARCHAR(255) NOT NULL," +
		"`title` VARCHAR(255) NOT NULL," +
		"`store_path` VARCHAR(512) NOT NULL," +
		"`metadata_xml` MEDIUMTEXT NOT NULL," +
		"`remote_service` VARCHAR(512) NULL," +
		"`anon_view` TINYINT(1) NOT NULL DEFAULT 0," +
		"`anon_download` TINYINT(1) NOT NULL DEFAULT 0," +
		"`created_at` DATETIME NOT NULL," +
		"PRIMARY KEY (`id`)," +
		"UNIQUE KEY `layers_name_idx` (`name`)" +
		")",
	"CREATE TABLE IF NOT EXISTS `metadata` (" +
		"`id` BIGINT NOT NULL AUTO_INCREMENT," +
		"`layer_id` BIGINT NOT NULL," +
		"`layer_purpose` VARCHAR(64) NOT NULL," +
		"`category` VARCHAR(64) NOT NULL," +
		"`keywords_xml` MEDIUMTEXT NOT NULL," +
		"PRIMARY KEY (`id`)," +
		"UNIQUE KEY `metadata_layer_id_idx` (`layer_id`)" +
		")",
	"CREATE TABLE IF NOT EXISTS `analyses` (" +
		"`id` BIGINT NOT NULL AUTO_INCREMENT," +
		"`hazard_layer_id` BIGINT NOT NULL," +
		"`exposure_layer_id` BIGINT NOT NULL," +
		"`impact_function_id` VARCHAR(255) NOT NULL," +
		"`extent` VARCHAR(255) NULL," +
		"`user_title` VARCHAR(255) NULL," +
		"`task_id` VARCHAR(36) NULL," +
		"`task_state` VARCHAR(16) NULL," +
		"`start_time` DATETIME NOT NULL," +
		"`end_time` DATETIME NULL," +
		"`impact_layer_id` BIGINT NULL," +
		"`report_map` VARCHAR(512) NULL," +
		"`report_table` VARCHAR(512) NULL," +
		"`keep` TINYINT(1) NOT NULL DEFAULT 0," +
		"PRIMARY KEY (`id`)," +
		"KEY `analyses_task_id_idx` (`task_id`)" +
		")",
}

var schemaSQLite = []string{
	"CREATE TABLE IF NOT EXISTS `layers` (" +
		"`id` INTEGER PRIMARY KEY AUTOINCREMENT," +
		"`uuid` TEXT NOT NULL," +
		"`name` TEXT NOT NULL UNIQUE," +
		"`title` TEXT NOT NULL," +
		"`store_path` TEXT NOT NULL," +
		"`metadata_xml` TEXT NOT NULL," +
		"`remote_service` TEXT NULL," +
		"`anon_view` BOOLEAN NOT NULL DEFAULT 0," +
		"`anon_download` BOOLEAN NOT NULL DEFAULT 0," +
		"`created_at` TIMESTAMP NOT NULL" +
		")",
	"CREATE TABLE IF NOT EXISTS `metadata` (" +
		"`id` INTEGER PRIMARY KEY AUTOINCREMENT," +
		"`layer_id` INTEGER NOT NULL UNIQUE," +
		"`layer_purpose` TEXT NOT NULL," +
		"`category` TEXT NOT NULL," +
		"`keywords_xml` TEXT NOT NULL" +
		")",
	"CREATE TABLE IF NOT EXISTS `analyses` (" +
		"`id` INTEGER PRIMARY KEY AUTOINCREMENT," +
		"`hazard_layer_id` INTEGER NOT NULL," +
		"`exposure_layer_id` INTEGER NOT NULL," +
		"`impact_function_id` TEXT NOT NULL," +
		"`extent` TEXT NULL," +
		"`user_title` TEXT NULL," +
		"`task_id` TEXT NULL," +
		"`task_state` TEXT NULL," +
		"`start_time` TIMESTAMP NOT NULL," +
		"`end_time` TIMESTAMP NULL," +
		"`impact_layer_id` INTEGER NULL," +
		"`report_map` TEXT NULL," +
		"`report_table` TEXT NULL," +
		"`keep` BOOLEAN NOT NULL DEFAULT 0" +
		")",
}

// InitSchema creates the catalog tables if they do not exist yet.
func (cat *Catalog) InitSchema(ctx context.Context) error {
	var statements []string
	switch cat.driverName {
	case "mysql":
		statements = schemaMySQL
	case "sqlite3":
		statements = schemaSQLite
	}

	for _, statement := range statements {
		if _, err := cat.DB.ExecContext(ctx, statement); err != nil {
			return ErrInitSchema{Err: err}
		}
	}
	return nil
}
