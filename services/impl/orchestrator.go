package impl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/coldcatalog/catalog-service/catalogerr"
	"github.com/coldcatalog/catalog-service/config"
	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

// ingestWorkUnit is one per-file work item submitted to the job queue
// (spec.md §5: "Ingestion submits per-file work units into a bounded job
// queue").
type ingestWorkUnit struct {
	jobID     uuid.UUID
	brandHint string
	file      services.IngestFile
}

// jobDelta is a batch of counter increments applied to an IngestionJob row.
type jobDelta struct {
	processed       int
	newProducts     int
	updatedProducts int
	failed          int
}

// orchestratorService implements services.OrchestratorService (spec.md §5): a
// bounded job queue drained by a worker pool of min(8, cores) goroutines,
// each running one document end-to-end (extract -> classify -> resolve ->
// map -> parse -> upsert -> chunk -> embed), grounded on the teacher's
// goroutine-per-request-plus-graceful-shutdown shape in cmd/main.go, widened
// from "one request, one goroutine" to "a worker pool draining a channel".
type orchestratorService struct {
	cfg         config.OrchestratorConfig
	embedderCfg config.EmbedderConfig

	extractor      services.ExtractorService
	classifier     services.ClassifierService
	resolver       services.ResolverService
	fieldMapper    services.FieldMapperService
	compoundParser services.CompoundParserService
	registry       services.RegistryService
	conflictEngine services.ConflictEngineService
	chunker        services.ChunkerService
	embedder       services.EmbedderClient

	products  services.ProductStore
	documents services.DocumentStore
	chunks    services.ChunkStore
	jobs      services.JobStore

	queue chan ingestWorkUnit
	wg    sync.WaitGroup

	// productLocks enforces the per-product-mutex-keyed-by-model_number rule
	// (spec.md §5 "Per-product serialization") so two documents in the same
	// job never update the same product concurrently.
	productLocks sync.Map

	// jobMu serializes job-counter read-modify-write across workers; the job
	// aggregate row itself has no per-field atomic update in the store
	// contract, so updates go through a single in-process mutex.
	jobMu sync.Mutex

	cancelledMu sync.RWMutex
	cancelled   map[uuid.UUID]bool

	closeOnce sync.Once
}

// NewOrchestratorService constructs the Ingestion Orchestrator and starts its
// worker pool immediately; workers run until Shutdown closes the queue.
func NewOrchestratorService(
	cfg config.OrchestratorConfig,
	embedderCfg config.EmbedderConfig,
	extractor services.ExtractorService,
	classifier services.ClassifierService,
	resolver services.ResolverService,
	fieldMapper services.FieldMapperService,
	compoundParser services.CompoundParserService,
	registry services.RegistryService,
	conflictEngine services.ConflictEngineService,
	chunker services.ChunkerService,
	embedder services.EmbedderClient,
	products services.ProductStore,
	documents services.DocumentStore,
	chunkStore services.ChunkStore,
	jobs services.JobStore,
) services.OrchestratorService {
	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
		if workerCount > 8 {
			workerCount = 8
		}
	}
	queueSize := cfg.JobQueueSize
	if queueSize <= 0 {
		queueSize = 256
	}

	o := &orchestratorService{
		cfg:            cfg,
		embedderCfg:    embedderCfg,
		extractor:      extractor,
		classifier:     classifier,
		resolver:       resolver,
		fieldMapper:    fieldMapper,
		compoundParser: compoundParser,
		registry:       registry,
		conflictEngine: conflictEngine,
		chunker:        chunker,
		embedder:       embedder,
		products:       products,
		documents:      documents,
		chunks:         chunkStore,
		jobs:           jobs,
		queue:          make(chan ingestWorkUnit, queueSize),
		cancelled:      make(map[uuid.UUID]bool),
	}

	o.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go o.worker()
	}
	return o
}

func (o *orchestratorService) worker() {
	defer o.wg.Done()
	for unit := range o.queue {
		o.processFile(context.Background(), unit)
	}
}

func (o *orchestratorService) SubmitJob(ctx context.Context, brandHint string, files []services.IngestFile) (*models.IngestResponse, error) {
	resp := &models.IngestResponse{}

	var valid []services.IngestFile
	for _, f := range files {
		if len(f.Bytes) == 0 {
			resp.Rejected = append(resp.Rejected, models.RejectedFile{Filename: f.Filename, Reason: "empty file"})
			continue
		}
		valid = append(valid, f)
	}

	now := time.Now()
	job := &models.IngestionJob{
		ID:         uuid.New(),
		Status:     models.JobStatusQueued,
		TotalFiles: len(valid),
		StartedAt:  &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := o.jobs.Create(ctx, job); err != nil {
		return nil, catalogerr.Wrap(catalogerr.KindStoreUnavailable, "failed to create ingestion job", err)
	}
	resp.JobID = job.ID

	for _, f := range valid {
		select {
		case o.queue <- ingestWorkUnit{jobID: job.ID, brandHint: brandHint, file: f}:
			resp.Accepted = append(resp.Accepted, f.Filename)
		default:
			resp.Rejected = append(resp.Rejected, models.RejectedFile{Filename: f.Filename, Reason: "job queue full"})
			o.advanceJob(ctx, job.ID, jobDelta{processed: 1, failed: 1})
		}
	}
	return resp, nil
}

func (o *orchestratorService) GetJobStatus(ctx context.Context, jobID uuid.UUID) (*models.IngestionJob, error) {
	job, err := o.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, catalogerr.Wrap(catalogerr.KindStoreUnavailable, "failed to load job", err)
	}
	if job == nil {
		return nil, catalogerr.New(catalogerr.KindNotFound, "job not found")
	}
	return job, nil
}

func (o *orchestratorService) Cancel(jobID uuid.UUID) error {
	o.cancelledMu.Lock()
	o.cancelled[jobID] = true
	o.cancelledMu.Unlock()
	return nil
}

func (o *orchestratorService) isCancelled(jobID uuid.UUID) bool {
	o.cancelledMu.RLock()
	defer o.cancelledMu.RUnlock()
	return o.cancelled[jobID]
}

// Shutdown closes the queue so workers drain remaining items and exit, then
// waits up to ctx's deadline (spec.md §5 default graceful-shutdown timeout).
func (o *orchestratorService) Shutdown(ctx context.Context) error {
	o.closeOnce.Do(func() { close(o.queue) })

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// processFile runs one document end-to-end: extract -> classify -> resolve
// -> field map -> compound parse -> per-product upsert (conflict engine
// guarded) -> chunk -> embed -> persist (spec.md §5).
func (o *orchestratorService) processFile(ctx context.Context, unit ingestWorkUnit) {
	if o.isCancelled(unit.jobID) {
		return
	}

	checksum := sha256Hex(unit.file.Bytes)

	existing, err := o.documents.GetByChecksum(ctx, checksum)
	if err != nil {
		o.advanceJob(ctx, unit.jobID, jobDelta{processed: 1, failed: 1})
		return
	}
	if existing != nil {
		// Idempotent re-ingest of identical bytes: zero new rows, same
		// document_id (spec.md §8 testable property 1, scenario 1).
		o.advanceJob(ctx, unit.jobID, jobDelta{processed: 1})
		return
	}

	now := time.Now()
	doc := &models.Document{
		ID:             uuid.New(),
		Filename:       unit.file.Filename,
		MimeType:       unit.file.MimeType,
		ChecksumSHA256: checksum,
		Brand:          unit.brandHint,
		Status:         models.DocumentStatusPending,
		JobID:          &unit.jobID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := o.documents.Create(ctx, doc); err != nil {
		o.advanceJob(ctx, unit.jobID, jobDelta{processed: 1, failed: 1})
		return
	}

	doc.Status = models.DocumentStatusProcessing

	extraction, err := o.extractor.Extract(ctx, unit.file.Bytes, unit.file.MimeType)
	if err != nil {
		doc.Status = models.DocumentStatusFailed
		doc.AppendLog(models.ProcessingLogEntry{Stage: "extract", Status: "failed", Message: err.Error(), Timestamp: time.Now()})
		_ = o.documents.Update(ctx, doc)
		o.advanceJob(ctx, unit.jobID, jobDelta{processed: 1, failed: 1})
		return
	}
	doc.PageCount = len(extraction.Pages)
	doc.ExtractedText = extraction.PlainText

	if classification, err := o.classifier.Classify(ctx, extraction.PlainText, unit.file.Filename); err == nil && classification != nil {
		doc.DocType = classification.DocType
		if doc.Brand == "" {
			doc.Brand = classification.BrandCode
		}
		doc.Revision = classification.Revision
	}

	candidates, resolverLog, err := o.resolver.Resolve(ctx, extraction.PlainText, doc.Brand)
	doc.ProcessingLog = append(doc.ProcessingLog, resolverLog...)
	if err != nil || len(candidates) == 0 {
		doc.Status = models.DocumentStatusFailed
		doc.AppendLog(models.ProcessingLogEntry{Stage: "model_resolver", Status: "failed", Message: "no model candidates decoded", Timestamp: time.Now()})
		_ = o.documents.Update(ctx, doc)
		o.advanceJob(ctx, unit.jobID, jobDelta{processed: 1, failed: 1})
		return
	}

	mapped, _, err := o.fieldMapper.Map(ctx, harvestLabelValues(extraction.PlainText))
	if err != nil {
		doc.AppendLog(models.ProcessingLogEntry{Stage: "field_mapper", Status: "warning", Message: err.Error(), Timestamp: time.Now()})
	}

	var productIDs []uuid.UUID
	newCount, updatedCount := 0, 0

	for _, candidate := range candidates {
		if o.isCancelled(unit.jobID) {
			break
		}
		productID, isNew, err := o.upsertProduct(ctx, candidate, doc, mapped)
		if err != nil {
			doc.AppendLog(models.ProcessingLogEntry{Stage: "catalog_store", Status: "warning", Message: err.Error(), Timestamp: time.Now()})
			continue
		}
		productIDs = append(productIDs, productID)
		if isNew {
			newCount++
		} else {
			updatedCount++
		}

		link := models.DocumentProductLink{
			DocumentID: doc.ID,
			ProductID:  productID,
			Relevance:  models.RelevancePrimary,
			Confidence: 1.0,
			CreatedAt:  time.Now(),
		}
		if err := o.documents.PutLink(ctx, link); err != nil {
			doc.AppendLog(models.ProcessingLogEntry{Stage: "catalog_store", Status: "warning", Message: err.Error(), Timestamp: time.Now()})
		}
	}

	chunks, err := o.chunker.Chunk(ctx, doc, extraction, productIDs, mappedCanonicalNames(mapped))
	if err != nil {
		doc.AppendLog(models.ProcessingLogEntry{Stage: "chunker", Status: "warning", Message: err.Error(), Timestamp: time.Now()})
	} else {
		o.embedChunks(ctx, doc, chunks)
		if err := o.chunks.ReplaceForDocument(ctx, doc.ID, chunks); err != nil {
			doc.AppendLog(models.ProcessingLogEntry{Stage: "chunk_store", Status: "warning", Message: err.Error(), Timestamp: time.Now()})
		}
	}

	doc.Status = models.DocumentStatusProcessed
	_ = o.documents.Update(ctx, doc)

	o.advanceJob(ctx, unit.jobID, jobDelta{processed: 1, newProducts: newCount, updatedProducts: updatedCount})
}

func (o *orchestratorService) lockProduct(modelNumber string) func() {
	muIface, _ := o.productLocks.LoadOrStore(modelNumber, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// upsertProduct applies one document's decoded fields to the product keyed
// by candidate.ModelNumber, running the Conflict Engine per spec field and
// incrementing version only when at least one field actually changed
// (spec.md §3, §4.7).
func (o *orchestratorService) upsertProduct(ctx context.Context, candidate models.ModelCandidate, doc *models.Document, mapped []services.MappedField) (uuid.UUID, bool, error) {
	unlock := o.lockProduct(candidate.ModelNumber)
	defer unlock()

	var productID uuid.UUID
	isNew := false

	err := o.products.Upsert(ctx, func(tx services.ProductTx) error {
		product, err := tx.LockByModelNumber(candidate.ModelNumber)
		if err != nil {
			return fmt.Errorf("failed to lock product: %w", err)
		}
		if product == nil {
			isNew = true
			product = &models.Product{
				ID:             uuid.New(),
				ModelNumber:    candidate.ModelNumber,
				Version:        1,
				Brand:          doc.Brand,
				Family:         candidate.Family,
				ProductLine:    candidate.ProductLine,
				ControllerTier: candidate.ControllerTier,
				Status:         models.ProductStatusActive,
				Specs:          models.SpecMap{},
				Revision:       doc.Revision,
			}
		} else if candidate.Family != "" && product.Family != "" && candidate.Family != product.Family {
			entry := warnFamilyConflict(candidate.Family, product.Family)
			entry.Timestamp = time.Now()
			doc.AppendLog(entry)
		}
		if product.Specs == nil {
			product.Specs = models.SpecMap{}
		}

		changed := false
		for name, rawValue := range candidate.DecodedFields {
			value := o.basicSpecValue(ctx, name, rawValue)
			if existing, ok := product.Specs[name]; !ok || !existing.Equal(value, 0) {
				product.Specs[name] = value
				changed = true
			}
		}

		for _, mf := range mapped {
			for name, newValue := range o.specValuesForField(ctx, mf.CanonicalName, mf.RawValue) {
				// existingDocID is unavailable: the Product model (spec.md
				// §3) tracks one revision string for the whole record, not
				// per-spec provenance, so a per-spec existing document id
				// has no home to be read from here.
				decision, err := o.conflictEngine.Evaluate(ctx, product, name, newValue, doc.ID, uuid.Nil, doc.Revision, product.Revision)
				if err != nil {
					return fmt.Errorf("conflict evaluation failed for %s: %w", name, err)
				}
				switch decision.Action {
				case "write", "overwrite":
					product.Specs[name] = newValue
					changed = true
				}
			}
		}

		if changed && !isNew {
			product.Version++
			if doc.Revision != "" {
				product.Revision = doc.Revision
			}
		}

		applyFixedColumns(product)
		productID = product.ID
		return tx.Save(product, "ingest:"+doc.Filename, "ingestion-orchestrator")
	})

	return productID, isNew, err
}

// specValuesForField dispatches a mapped (canonical_name, raw_value) pair to
// the Compound Parser when the canonical name names a multi-field compound,
// expanding the parser's key=value encoding into separate canonical entries
// (documented convention in compound_parser.go); other fields fall back to a
// Registry-data-type-driven basic parse.
func (o *orchestratorService) specValuesForField(ctx context.Context, canonicalName, rawValue string) map[string]models.SpecValue {
	switch canonicalName {
	case "door_config":
		sv, ok := o.compoundParser.ParseDoorConfig(rawValue)
		if !ok {
			return map[string]models.SpecValue{canonicalName: sv}
		}
		return expandListPairs(sv)
	case "shelf_config":
		sv, ok := o.compoundParser.ParseShelfConfig(rawValue)
		if !ok {
			return map[string]models.SpecValue{canonicalName: sv}
		}
		return expandListPairs(sv)
	case "electrical":
		sv, ok := o.compoundParser.ParseElectrical(rawValue)
		if !ok {
			return map[string]models.SpecValue{canonicalName: sv}
		}
		return expandListPairs(sv)
	case "temp_range_c":
		sv, _ := o.compoundParser.ParseTemperatureRange(rawValue)
		return map[string]models.SpecValue{canonicalName: sv}
	case "refrigerant":
		sv, _ := o.compoundParser.ParseRefrigerant(rawValue)
		return map[string]models.SpecValue{canonicalName: sv}
	case "certifications":
		sv, _ := o.compoundParser.ParseCertifications(rawValue)
		return map[string]models.SpecValue{canonicalName: sv}
	case "width_in", "height_in", "depth_in":
		sv, _ := o.compoundParser.ParseFractionalDimension(rawValue)
		return map[string]models.SpecValue{canonicalName: sv}
	default:
		return map[string]models.SpecValue{canonicalName: o.basicSpecValue(ctx, canonicalName, rawValue)}
	}
}

// basicSpecValue builds a SpecValue from the Registry entry's declared
// data_type (spec.md §4.4/§4.6); an unknown or unresolved canonical name
// falls back to text.
func (o *orchestratorService) basicSpecValue(ctx context.Context, canonicalName, rawValue string) models.SpecValue {
	dataType := models.SpecDataTypeText
	if entry, err := o.registry.Lookup(ctx, canonicalName); err == nil && entry != nil {
		dataType = entry.DataType
	}

	trimmed := strings.TrimSpace(rawValue)
	switch dataType {
	case models.SpecDataTypeNumeric:
		if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return models.SpecValue{Kind: models.SpecValueNumeric, NumericVal: v, RawText: rawValue}
		}
		return models.SpecValue{Kind: models.SpecValueText, ParseFailed: true, RawText: rawValue}
	case models.SpecDataTypeBoolean:
		lower := strings.ToLower(trimmed)
		b := lower == "yes" || lower == "true" || lower == "1"
		return models.SpecValue{Kind: models.SpecValueBoolean, BoolVal: b, RawText: rawValue}
	case models.SpecDataTypeList:
		var list []string
		for _, part := range strings.Split(rawValue, ",") {
			if t := strings.TrimSpace(part); t != "" {
				list = append(list, t)
			}
		}
		return models.SpecValue{Kind: models.SpecValueList, ListVal: list, RawText: rawValue}
	case models.SpecDataTypeEnum:
		return models.SpecValue{Kind: models.SpecValueEnum, EnumVal: trimmed, RawText: rawValue}
	default:
		return models.SpecValue{Kind: models.SpecValueText, TextVal: trimmed, RawText: rawValue}
	}
}

// expandListPairs decodes a Kind=List SpecValue whose ListVal holds
// "key=value" entries (the multi-field compound encoding) into a map of
// standalone canonical-name SpecValues, numeric where the value parses as a
// float, a list where it contains a comma, and text otherwise.
func expandListPairs(sv models.SpecValue) map[string]models.SpecValue {
	out := make(map[string]models.SpecValue, len(sv.ListVal))
	for _, pair := range sv.ListVal {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, val := parts[0], parts[1]
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			out[key] = models.SpecValue{Kind: models.SpecValueNumeric, NumericVal: f, RawText: sv.RawText}
			continue
		}
		if strings.Contains(val, ",") {
			out[key] = models.SpecValue{Kind: models.SpecValueList, ListVal: strings.Split(val, ","), RawText: sv.RawText}
			continue
		}
		out[key] = models.SpecValue{Kind: models.SpecValueText, TextVal: val, RawText: sv.RawText}
	}
	return out
}

// applyFixedColumns syncs the product's denormalized fixed columns from its
// Specs map (spec.md §3: "fixed universal columns are denormalized
// projections of Specs").
func applyFixedColumns(p *models.Product) {
	if v, ok := numericSpec(p, "storage_capacity_cuft"); ok {
		p.StorageCapacityCuFt = &v
	}
	if sv, ok := p.Specs["temp_range_c"]; ok && sv.Kind == models.SpecValueRange {
		min, max := sv.RangeMin, sv.RangeMax
		p.TempRangeMinC = &min
		p.TempRangeMaxC = &max
	}
	if n, ok := intSpec(p, "door_count"); ok {
		p.DoorCount = &n
	}
	if sv, ok := p.Specs["door_type"]; ok {
		p.DoorType = sv.TextVal
	}
	if n, ok := intSpec(p, "shelf_count"); ok {
		p.ShelfCount = &n
	}
	if sv, ok := p.Specs["refrigerant"]; ok {
		p.Refrigerant = sv.TextVal
	}
	if v, ok := numericSpec(p, "voltage_v"); ok {
		p.VoltageV = &v
	}
	if v, ok := numericSpec(p, "amperage"); ok {
		p.Amperage = &v
	}
	if v, ok := numericSpec(p, "weight_lbs"); ok {
		p.WeightLbs = &v
	}
	if v, ok := numericSpec(p, "width_in"); ok {
		p.WidthIn = &v
	}
	if v, ok := numericSpec(p, "height_in"); ok {
		p.HeightIn = &v
	}
	if v, ok := numericSpec(p, "depth_in"); ok {
		p.DepthIn = &v
	}
	if sv, ok := p.Specs["certifications"]; ok && sv.Kind == models.SpecValueList {
		p.Certifications = pq.StringArray(sv.ListVal)
	}
}

func numericSpec(p *models.Product, name string) (float64, bool) {
	sv, ok := p.Specs[name]
	if !ok || sv.Kind != models.SpecValueNumeric {
		return 0, false
	}
	return sv.NumericVal, true
}

func intSpec(p *models.Product, name string) (int, bool) {
	v, ok := numericSpec(p, name)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// embedBatch is one group of chunk indices sent to the embedder as a single
// call, sized by the embedder's configured batch size.
type embedBatch struct {
	start, end int
}

// embedChunks batches chunk text into the embedder's configured batch size
// (spec.md §6.2: "batching is a caller concern") and runs at most
// cfg.MaxInFlight batches concurrently (spec.md §4.9/§5 bounded-concurrency
// requirement), using the same bounded-semaphore shape as the ingestion job
// queue (o.queue above). On provider failure a batch degrades gracefully,
// leaving that batch's embeddings nil rather than failing the whole document
// (spec.md §8 scenario 6).
func (o *orchestratorService) embedChunks(ctx context.Context, doc *models.Document, chunks []models.Chunk) {
	if len(chunks) == 0 {
		return
	}
	batchSize := o.embedderCfg.BatchSize
	if batchSize <= 0 {
		batchSize = 16
	}
	maxInFlight := o.embedderCfg.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 4
	}

	var batches []embedBatch
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, embedBatch{start: start, end: end})
	}

	sem := make(chan struct{}, maxInFlight)
	var wg sync.WaitGroup
	var logMu sync.Mutex

	for _, b := range batches {
		wg.Add(1)
		sem <- struct{}{}
		go func(b embedBatch) {
			defer wg.Done()
			defer func() { <-sem }()
			o.embedOneBatch(ctx, doc, chunks, b, &logMu)
		}(b)
	}
	wg.Wait()
}

// embedOneBatch embeds a single batch and writes its vectors back into the
// shared chunks slice at disjoint indices; doc.ProcessingLog is not safe for
// concurrent append, so every log write goes through logMu.
func (o *orchestratorService) embedOneBatch(ctx context.Context, doc *models.Document, chunks []models.Chunk, b embedBatch, logMu *sync.Mutex) {
	texts := make([]string, b.end-b.start)
	for i := b.start; i < b.end; i++ {
		texts[i-b.start] = chunks[i].Content
	}

	vectors, err := o.embedder.Embed(ctx, o.embedderCfg.Model, texts)
	if err != nil {
		logMu.Lock()
		doc.AppendLog(models.ProcessingLogEntry{
			Stage:     "embedder",
			Status:    "warning",
			Message:   "embedding provider unavailable, chunks stored without vectors: " + err.Error(),
			Timestamp: time.Now(),
		})
		logMu.Unlock()
		return
	}

	for i := b.start; i < b.end && i-b.start < len(vectors); i++ {
		embedding := models.Embedding(vectors[i-b.start])
		if err := embedding.ValidateDimension(o.embedderCfg.EmbeddingDim); err != nil {
			logMu.Lock()
			doc.AppendLog(models.ProcessingLogEntry{Stage: "embedder", Status: "warning", Message: err.Error(), Timestamp: time.Now()})
			logMu.Unlock()
			continue
		}
		chunks[i].Embedding = embedding
	}
}

// advanceJob applies a delta to the job's counters, recomputing status.
func (o *orchestratorService) advanceJob(ctx context.Context, jobID uuid.UUID, delta jobDelta) {
	o.jobMu.Lock()
	defer o.jobMu.Unlock()

	job, err := o.jobs.GetByID(ctx, jobID)
	if err != nil || job == nil {
		return
	}

	job.ProcessedFiles += delta.processed
	job.NewProducts += delta.newProducts
	job.UpdatedProducts += delta.updatedProducts
	job.FailedFiles += delta.failed
	job.UpdatedAt = time.Now()

	if job.ProcessedFiles >= job.TotalFiles {
		job.Status = models.JobStatusCompleted
		completed := time.Now()
		job.CompletedAt = &completed
	} else {
		job.Status = models.JobStatusProcessing
	}

	_ = o.jobs.Update(ctx, job)
}

var labelLinePattern = regexp.MustCompile(`(?m)^[ \t]*([A-Za-z][\w /%.-]{1,60}):[ \t]*(.+?)[ \t]*$`)

// harvestLabelValues scans extracted plain text for "label: value" lines
// (spec.md §4.4: fields harvested from tables/key-value lines/section
// headers; this module sees the flattened text, so it targets the key-value
// line shape specifically).
func harvestLabelValues(text string) []services.LabelValue {
	var out []services.LabelValue
	for _, line := range strings.Split(text, "\n") {
		m := labelLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, services.LabelValue{Label: m[1], RawValue: m[2], Context: strings.TrimSpace(line)})
	}
	return out
}

func mappedCanonicalNames(mapped []services.MappedField) []string {
	seen := make(map[string]bool, len(mapped))
	names := make([]string, 0, len(mapped))
	for _, mf := range mapped {
		if !seen[mf.CanonicalName] {
			seen[mf.CanonicalName] = true
			names = append(names, mf.CanonicalName)
		}
	}
	return names
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
