package cmd

type Config struct {
	HTTPPort            string
	DBHost              string
	DBPort              string
	DBUser              string
	DBPassword          string
	DBName              string
	DBSslMode           string
	MeshBridgeAddr      string
	MeshReconnectDelay  string
	GeocoderURL         string
	GeocoderMaxAttempts string
	GeocoderBackoff     string
	AckBaseWindow       string
	AckMaxRetries       string
	UnitSilenceWindow   string
	RouterQueueSize     string
	RouterWorkers       string
}
