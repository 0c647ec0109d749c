// Package config loads the scaffold project configuration.
//
// The configuration lives at the project root in scaffold.json (or
// scaffold.toml). Every field has a default that mirrors a conventional
// single-page application setup, so an empty file is a valid configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "scaffold",
//	  "entry": "./web/src/index.js",
//	  "template": "./web/public/index.html",
//	  "output": {
//	    "dir": "dist",
//	    "filename": "[name].[chunkhash:8].js",
//	    "clean": true
//	  },
//	  "css": {
//	    "filename": "styles/style.[hash:8].css"
//	  },
//	  "images": {
//	    "inlineLimit": 1024,
//	    "filename": "assets/images/[name].[hash:5].[ext]"
//	  },
//	  "html": {
//	    "inject": "body",
//	    "minify": true
//	  },
//	  "dev": {
//	    "host": "0.0.0.0",
//	    "port": 8000,
//	    "hot": true,
//	    "overlay": true,
//	    "filename": "bundle.[hash:8].js"
//	  },
//	  "deploy": {
//	    "bucket": "my-site",
//	    "region": "us-east-1"
//	  }
//	}
//
// # Mode
//
// The build mode is "development" or "production". It is read from the
// SCAFFOLD_ENV environment variable, falling back to NODE_ENV, then to the
// "mode" field, then to production. A .env file next to the configuration is
// loaded first; variables already set in the environment win.
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    return err
//	}
//	if cfg.IsDev() {
//	    fmt.Println("dev server on", cfg.DevURL())
//	}
package config
