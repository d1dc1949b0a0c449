// Package confloader loads layered configuration and watches files for
// changes.
//
// Sources are merged with koanf in this order, later ones winning:
//
//  1. Defaults already present in the target struct
//  2. YAML configuration file
//  3. Environment variables (LWM2MSECCFG_ prefix)
//  4. Maps loaded with LoadMap (command-line flags)
//
// In environment variable names a single underscore separates sections and
// a double underscore stands for a literal underscore in a key:
//
//	LWM2MSECCFG_EDITOR_SESSION__TTL=10m  ->  editor.session_ttl
//
// Watcher wraps fsnotify. It watches a file's parent directory so that
// editors which save via rename are still seen, or a whole directory of
// model files.
package confloader
