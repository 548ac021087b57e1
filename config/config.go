package config

import (
	"flag"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	sc "github.com/sksmith/go-spring-config"
	"github.com/spf13/viper"
)

const (
	AppName  = "Stock Ledger"
	Revision = "1"

	springAppName = "stock-ledger"
	maxRetries    = 5
)

var (
	// Build time arguments
	AppVersion  string
	Sha1Version string
	BuildTime   string

	// Runtime flags
	profile      *string
	configSource *string
	configUrl    *string
	configBranch *string
	configUser   *string
	configPass   *string
)

type Config struct {
	AppName         string       `json:"appName"         yaml:"appName"`
	AppNameDesc     string       `json:"appNameDesc"     yaml:"appNameDesc"`
	AppVersion      string       `json:"appVersion"      yaml:"appVersion"`
	AppVersionDesc  string       `json:"appVersionDesc"  yaml:"appVersionDesc"`
	Sha1Version     string       `json:"sha1Version"     yaml:"sha1Version"`
	Sha1VersionDesc string       `json:"sha1VersionDesc" yaml:"sha1VersionDesc"`
	BuildTime       string       `json:"buildTime"       yaml:"buildTime"`
	BuildTimeDesc   string       `json:"buildTimeDesc"   yaml:"buildTimeDesc"`
	Profile         string       `json:"profile"         yaml:"profile"`
	ProfileDesc     string       `json:"profileDesc"     yaml:"profileDesc"`
	Revision        string       `json:"revision"        yaml:"revision"`
	RevisionDesc    string       `json:"revisionDesc"    yaml:"revisionDesc"`
	Port            string       `json:"port"            yaml:"port"`
	PortDesc        string       `json:"portDesc"        yaml:"portDesc"`
	Config          ConfigSource `json:"config"          yaml:"config"`
	ConfigDesc      string       `json:"configDesc"      yaml:"configDesc"`
	Log             LogConfig    `json:"log"             yaml:"log"`
	LogDesc         string       `json:"logDesc"         yaml:"logDesc"`
	Db              DbConfig     `json:"db"              yaml:"db"`
	DbDesc          string       `json:"dbDesc"          yaml:"dbDesc"`
	Cache           CacheConfig  `json:"cache"           yaml:"cache"`
	CacheDesc       string       `json:"cacheDesc"       yaml:"cacheDesc"`
	Redis           RedisConfig  `json:"redis"           yaml:"redis"`
	RedisDesc       string       `json:"redisDesc"       yaml:"redisDesc"`
	RabbitMQ        QueueConfig  `json:"rabbitmq"        yaml:"rabbitmq"`
	RabbitMQDesc    string       `json:"rabbitmqDesc"    yaml:"rabbitmqDesc"`
	Ledger          LedgerConfig `json:"ledger"          yaml:"ledger"`
	LedgerDesc      string       `json:"ledgerDesc"      yaml:"ledgerDesc"`
	Admin           AdminConfig  `json:"admin"           yaml:"admin"`
	AdminDesc       string       `json:"adminDesc"       yaml:"adminDesc"`
}

type ConfigSource struct {
	Print      bool         `json:"print"      yaml:"print"`
	PrintDesc  string       `json:"printDesc"  yaml:"printDesc"`
	Source     string       `json:"source"     yaml:"source"`
	SourceDesc string       `json:"sourceDesc" yaml:"sourceDesc"`
	Spring     SpringConfig `json:"spring"     yaml:"spring"`
	SpringDesc string       `json:"springDesc" yaml:"springDesc"`
}

type SpringConfig struct {
	Url        string `json:"url"        yaml:"url"`
	UrlDesc    string `json:"urlDesc"    yaml:"urlDesc"`
	Branch     string `json:"branch"     yaml:"branch"`
	BranchDesc string `json:"branchDesc" yaml:"branchDesc"`
	User       string `json:"user"       yaml:"user"`
	UserDesc   string `json:"userDesc"   yaml:"userDesc"`
	Pass       string `json:"pass"       yaml:"pass"     sensitive:"true"`
	PassDesc   string `json:"passDesc"   yaml:"passDesc"`
}

type LogConfig struct {
	Level          string `json:"level"          yaml:"level"`
	LevelDesc      string `json:"levelDesc"      yaml:"levelDesc"`
	Structured     bool   `json:"structured"     yaml:"structured"`
	StructuredDesc string `json:"structuredDesc" yaml:"structuredDesc"`
}

type DbConfig struct {
	Name         string       `json:"name"         yaml:"name"`
	NameDesc     string       `json:"nameDesc"     yaml:"nameDesc"`
	Host         string       `json:"host"         yaml:"host"`
	HostDesc     string       `json:"hostDesc"     yaml:"hostDesc"`
	Port         string       `json:"port"         yaml:"port"`
	PortDesc     string       `json:"portDesc"     yaml:"portDesc"`
	Migrate      bool         `json:"migrate"      yaml:"migrate"`
	MigrateDesc  string       `json:"migrateDesc"  yaml:"migrateDesc"`
	Clean        bool         `json:"clean"        yaml:"clean"`
	CleanDesc    string       `json:"cleanDesc"    yaml:"cleanDesc"`
	InMemory     bool         `json:"inMemory"     yaml:"inMemory"`
	InMemoryDesc string       `json:"inMemoryDesc" yaml:"inMemoryDesc"`
	User         string       `json:"user"         yaml:"user"`
	UserDesc     string       `json:"userDesc"     yaml:"userDesc"`
	Pass         string       `json:"pass"         yaml:"pass"         sensitive:"true"`
	PassDesc     string       `json:"passDesc"     yaml:"passDesc"`
	Pool         DbPoolConfig `json:"pool"         yaml:"pool"`
	PoolDesc     string       `json:"poolDesc"     yaml:"poolDesc"`
}

type DbPoolConfig struct {
	MinSize     int    `json:"minSize"     yaml:"minSize"`
	MinSizeDesc string `json:"minSizeDesc" yaml:"minSizeDesc"`
	MaxSize     int    `json:"maxSize"     yaml:"maxSize"`
	MaxSizeDesc string `json:"maxSizeDesc" yaml:"maxSizeDesc"`
}

type CacheConfig struct {
	Enabled     bool   `json:"enabled"     yaml:"enabled"`
	EnabledDesc string `json:"enabledDesc" yaml:"enabledDesc"`
	Size        int    `json:"size"        yaml:"size"`
	SizeDesc    string `json:"sizeDesc"    yaml:"sizeDesc"`
}

type RedisConfig struct {
	Enabled      bool          `json:"enabled"      yaml:"enabled"`
	EnabledDesc  string        `json:"enabledDesc"  yaml:"enabledDesc"`
	Addr         string        `json:"addr"         yaml:"addr"`
	AddrDesc     string        `json:"addrDesc"     yaml:"addrDesc"`
	Pass         string        `json:"pass"         yaml:"pass"         sensitive:"true"`
	PassDesc     string        `json:"passDesc"     yaml:"passDesc"`
	DB           int           `json:"db"           yaml:"db"`
	DBDesc       string        `json:"dbDesc"       yaml:"dbDesc"`
	LockTTL      time.Duration `json:"lockTtl"      yaml:"lockTtl"`
	LockTTLDesc  string        `json:"lockTtlDesc"  yaml:"lockTtlDesc"`
	LockWait     time.Duration `json:"lockWait"     yaml:"lockWait"`
	LockWaitDesc string        `json:"lockWaitDesc" yaml:"lockWaitDesc"`
}

type QueueConfig struct {
	Host          string               `json:"host"          yaml:"host"`
	HostDesc      string               `json:"hostDesc"      yaml:"hostDesc"`
	Port          string               `json:"port"          yaml:"port"`
	PortDesc      string               `json:"portDesc"      yaml:"portDesc"`
	User          string               `json:"user"          yaml:"user"`
	UserDesc      string               `json:"userDesc"      yaml:"userDesc"`
	Pass          string               `json:"pass"          yaml:"pass"          sensitive:"true"`
	PassDesc      string               `json:"passDesc"      yaml:"passDesc"`
	Mock          bool                 `json:"mock"          yaml:"mock"`
	MockDesc      string               `json:"mockDesc"      yaml:"mockDesc"`
	Inventory     InventoryQueueConfig `json:"inventory"     yaml:"inventory"`
	InventoryDesc string               `json:"inventoryDesc" yaml:"inventoryDesc"`
	Reorder       ReorderQueueConfig   `json:"reorder"       yaml:"reorder"`
	ReorderDesc   string               `json:"reorderDesc"   yaml:"reorderDesc"`
	Product       ProductQueueConfig   `json:"product"       yaml:"product"`
	ProductDesc   string               `json:"productDesc"   yaml:"productDesc"`
}

type InventoryQueueConfig struct {
	Exchange     string `json:"exchange"     yaml:"exchange"`
	ExchangeDesc string `json:"exchangeDesc" yaml:"exchangeDesc"`
}

type ReorderQueueConfig struct {
	Exchange     string `json:"exchange"     yaml:"exchange"`
	ExchangeDesc string `json:"exchangeDesc" yaml:"exchangeDesc"`
}

type ProductQueueConfig struct {
	Queue     string                `json:"queue"     yaml:"queue"`
	QueueDesc string                `json:"queueDesc" yaml:"queueDesc"`
	Dlt       ProductQueueDltConfig `json:"dlt"       yaml:"dlt"`
	DltDesc   string                `json:"dltDesc"   yaml:"dltDesc"`
}

type ProductQueueDltConfig struct {
	Exchange     string `json:"exchange"     yaml:"exchange"`
	ExchangeDesc string `json:"exchangeDesc" yaml:"exchangeDesc"`
}

type LedgerConfig struct {
	DefaultLocationName     string `json:"defaultLocationName"     yaml:"defaultLocationName"`
	DefaultLocationNameDesc string `json:"defaultLocationNameDesc" yaml:"defaultLocationNameDesc"`
	DefaultLocationType     string `json:"defaultLocationType"     yaml:"defaultLocationType"`
	DefaultLocationTypeDesc string `json:"defaultLocationTypeDesc" yaml:"defaultLocationTypeDesc"`
	FallbackReorderQty      int64  `json:"fallbackReorderQty"      yaml:"fallbackReorderQty"`
	FallbackReorderQtyDesc  string `json:"fallbackReorderQtyDesc"  yaml:"fallbackReorderQtyDesc"`
}

type AdminConfig struct {
	User     string `json:"user"     yaml:"user"`
	UserDesc string `json:"userDesc" yaml:"userDesc"`
	Pass     string `json:"pass"     yaml:"pass"     sensitive:"true"`
	PassDesc string `json:"passDesc" yaml:"passDesc"`
}

func (c *Config) Print() {
	if c.Config.Print {
		log.Info().Interface("config", c).Msg("the following configurations have successfully loaded")
	}
}

func init() {
	profile = flag.String("p", "local", "profile for the application config")
	configSource = flag.String("s", "local", "where to get configurations from: local or spring")
	configUrl = flag.String("cfgUrl", "", "url for application config server")
	configBranch = flag.String("cfgBranch", "", "branch to request from the configuration server (used for spring cloud config)")
	configUser = flag.String("cfgUser", "", "username to use when connecting to the application server")
	configPass = flag.String("cfgPass", "", "password to use when connecting to the application server")

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("profile", "local")

	v.SetDefault("config.print", false)

	v.SetDefault("log.level", "trace")
	v.SetDefault("log.structured", false)

	v.SetDefault("db.name", "stock-ledger-db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.pass", "postgres")
	v.SetDefault("db.migrate", true)
	v.SetDefault("db.clean", false)
	v.SetDefault("db.inMemory", false)
	v.SetDefault("db.pool.minSize", 1)
	v.SetDefault("db.pool.maxSize", 10)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", 256)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pass", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lockTtl", 10*time.Second)
	v.SetDefault("redis.lockWait", 5*time.Second)

	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", "5672")
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.pass", "guest")
	v.SetDefault("rabbitmq.mock", false)
	v.SetDefault("rabbitmq.inventory.exchange", "inventory.exchange")
	v.SetDefault("rabbitmq.reorder.exchange", "reorder.exchange")
	v.SetDefault("rabbitmq.product.queue", "product.queue")
	v.SetDefault("rabbitmq.product.dlt.exchange", "product.dlt.exchange")

	v.SetDefault("ledger.defaultLocationName", "Default")
	v.SetDefault("ledger.defaultLocationType", "warehouse")
	v.SetDefault("ledger.fallbackReorderQty", 100)

	v.SetDefault("admin.user", "")
	v.SetDefault("admin.pass", "")
}

// Load reads configurations from the source selected on the command line. flag.Parse must have been called.
func Load() *Config {
	config := createConfig()

	var err error
	switch *configSource {
	case "local":
		err = loadLocalConfigs(viper.GetViper(), config, "config", ".")
	case "spring":
		err = loadRemoteConfigs(viper.GetViper(), config)
	default:
		log.Warn().
			Str("configSource", *configSource).
			Msg("unrecognized configuration source, using local")

		err = loadLocalConfigs(viper.GetViper(), config, "config", ".")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configurations")
	}

	return config
}

// LoadDefaults returns a configuration built only from defaults.
func LoadDefaults() *Config {
	v := viper.New()
	setDefaults(v)

	config := createConfig()
	if err := v.Unmarshal(config); err != nil {
		log.Fatal().Err(err).Msg("failed to load default configurations")
	}
	return config
}

// LoadFile reads a yaml file named name (without extension) from path on top of the defaults.
func LoadFile(name, path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	config := createConfig()
	if err := loadLocalConfigs(v, config, name, path); err != nil {
		return nil, err
	}
	return config, nil
}

func createConfig() *Config {
	config := &Config{}
	setDescriptions(config)

	config.Config.Source = *configSource

	config.Config.Spring.Url = *configUrl
	config.Config.Spring.Branch = *configBranch
	config.Config.Spring.User = *configUser
	config.Config.Spring.Pass = *configPass

	config.AppName = AppName
	config.Revision = Revision
	config.AppVersion = AppVersion
	config.Sha1Version = Sha1Version
	config.BuildTime = BuildTime

	return config
}

func loadLocalConfigs(v *viper.Viper, config *Config, name, path string) error {
	log.Info().Str("name", name).Str("path", path).Msg("loading local configurations...")

	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.WithStack(err)
		}
		log.Warn().Str("name", name).Msg("no local configuration file found, using defaults")
	}

	return unmarshal(v, config)
}

func loadRemoteConfigs(v *viper.Viper, config *Config) error {
	log.Info().
		Str("url", *configUrl).
		Str("branch", *configBranch).
		Str("profile", *profile).
		Msg("loading spring cloud configurations...")

	var remote *sc.Config
	var err error

	for tryCount := 1; tryCount <= maxRetries; tryCount++ {
		remote, err = sc.LoadWithCreds(*configUrl, springAppName, *configBranch, *configUser, *configPass, *profile)
		if err == nil {
			break
		}
		log.Error().Err(err).Int("try", tryCount).Msg("failed to load configurations... retrying")
		time.Sleep(5 * time.Second)
	}
	if err != nil {
		return errors.WithMessage(err, "failed to load spring cloud configurations")
	}

	for k, val := range remote.Values {
		v.Set(strings.TrimPrefix(k, "app."), val)
	}

	return unmarshal(v, config)
}

func unmarshal(v *viper.Viper, config *Config) error {
	if err := v.Unmarshal(config); err != nil {
		return errors.WithStack(err)
	}
	config.Config.Source = *configSource
	return nil
}

func setDescriptions(config *Config) {
	config.AppNameDesc = "Name of the application in a human readable format. Example: Stock Ledger"
	config.AppVersionDesc = "Semantic version of the application. Example: v1.2.3"
	config.Sha1VersionDesc = "Git sha1 hash of the application version."
	config.BuildTimeDesc = "When the application was compiled."
	config.ProfileDesc = "Running profile of the application, can assist with sensible defaults or change behavior. Examples: local, dev, prod"
	config.RevisionDesc = "A hard coded revision handy for quickly determining if local changes are running. Examples: 1, Two, 9999"
	config.PortDesc = "Port that the application will bind to on startup. Examples: 8080, 3000"
	config.ConfigDesc = "Settings for where and how the application should get its configurations."
	config.LogDesc = "Settings for applicaton logging."
	config.DbDesc = "Database configurations."
	config.CacheDesc = "In process cache of inventory items read by product id."
	config.RedisDesc = "Redis settings used for per product locking across instances."
	config.RabbitMQDesc = "Rabbit MQ congfigurations."
	config.LedgerDesc = "Stock ledger behavior."
	config.AdminDesc = "Administrator created on startup when it does not exist yet. Leave user empty to skip."

	config.Config.PrintDesc = "Print configurations on startup."
	config.Config.SourceDesc = "Where the application should go for configurations. Examples: local, spring"
	config.Config.SpringDesc = "Configuration settings for Spring Cloud Config. These are only used if config.source is spring."

	config.Config.Spring.UrlDesc = "The url of the Spring Cloud Config server."
	config.Config.Spring.BranchDesc = "The git branch to use to pull configurations from. Examples: main, master, development"
	config.Config.Spring.UserDesc = "User to use when connecting to the Spring Cloud Config server."
	config.Config.Spring.PassDesc = "Password to use when connecting to the Spring Cloud Config server."

	config.Log.LevelDesc = "The lowest level that the application should log at. Examples: info, warn, error."
	config.Log.StructuredDesc = "Whether the application should output structured (json) logging, or human friendly plain text."

	config.Db.NameDesc = "The name of the database to connect to."
	config.Db.HostDesc = "Host of the database."
	config.Db.PortDesc = "Port of the database."
	config.Db.MigrateDesc = "Whether or not database migrations should be executed on startup."
	config.Db.CleanDesc = "WARNING: THIS WILL DELETE ALL DATA FROM THE DB. Used only during migration. If clean is true, all 'down' migrations are executed."
	config.Db.InMemoryDesc = "Whether or not the application should use an in memory database."
	config.Db.UserDesc = "User the application will use to connect to the database."
	config.Db.PassDesc = "Password the application will use for connecting to the database."
	config.Db.PoolDesc = "Connection pool sizing."
	config.Db.Pool.MinSizeDesc = "Minimum number of open connections."
	config.Db.Pool.MaxSizeDesc = "Maximum number of open connections."

	config.Cache.EnabledDesc = "Whether item reads should go through the in process cache."
	config.Cache.SizeDesc = "Number of items the cache holds before evicting the least recently used."

	config.Redis.EnabledDesc = "Whether product locks are held in Redis. When false locks are local to this process."
	config.Redis.AddrDesc = "Redis address. Example: localhost:6379"
	config.Redis.PassDesc = "Password used to connect to Redis."
	config.Redis.DBDesc = "Redis logical database."
	config.Redis.LockTTLDesc = "How long a product lock is held before Redis expires it."
	config.Redis.LockWaitDesc = "How long to wait for a product lock before giving up."

	config.RabbitMQ.HostDesc = "RabbitMQ's broker host."
	config.RabbitMQ.PortDesc = "RabbitMQ's broker host port."
	config.RabbitMQ.UserDesc = "User the application will use to connect to RabbitMQ."
	config.RabbitMQ.PassDesc = "Password the application will use to connect to RabbitMQ."
	config.RabbitMQ.MockDesc = "Whether or not the application should mock sending messages to RabbitMQ."
	config.RabbitMQ.InventoryDesc = "RabbitMQ settings for inventory related updates."
	config.RabbitMQ.ReorderDesc = "RabbitMQ settings for reorder alerts."
	config.RabbitMQ.ProductDesc = "RabbitMQ settings for product related updates."
	config.RabbitMQ.Inventory.ExchangeDesc = "RabbitMQ exchange to use for posting inventory updates."
	config.RabbitMQ.Reorder.ExchangeDesc = "RabbitMQ exchange to use for posting reorder alerts."
	config.RabbitMQ.Product.QueueDesc = "Queue used for listening to new products coming from a product management system."
	config.RabbitMQ.Product.DltDesc = "Configurations for the product dead letter topic, where messages that fail to be read from the queue are written."
	config.RabbitMQ.Product.Dlt.ExchangeDesc = "Exchange used for posting messages to the dead letter topic."

	config.Ledger.DefaultLocationNameDesc = "Name given to the location created for items that have none."
	config.Ledger.DefaultLocationTypeDesc = "Type given to the location created for items that have none."
	config.Ledger.FallbackReorderQtyDesc = "Suggested reorder quantity when an item has neither a reorder quantity nor a reorder point."
}
