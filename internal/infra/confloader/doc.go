// Package confloader loads layered configuration with koanf.
//
// Priority, highest first:
//
//  1. Flag overrides passed to LoadMap
//  2. Environment variables (STM_SECTION_KEY)
//  3. The YAML configuration file
//  4. Defaults already present in the target struct
//
// Watcher reports changes to a configuration file so callers can reload
// the settings that are safe to change at runtime.
package confloader
