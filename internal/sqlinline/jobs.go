package sqlinline

const QInsertJob = `--sql f5358aa5-763b-4866-8a4f-4c433c661ae1
insert into jobs (
    id,
    owner_id,
    source_image_id,
    scene_id,
    scene_type,
    scene_name,
    user_prompt,
    model,
    status,
    created_at,
    updated_at
)
values ($1::uuid, $2::text, $3::uuid, $4::bigint, $5::text, $6::text, $7::text, $8::text, 'processing', now(), now());
`

const QSelectJobForOwner = `--sql 3dd83c96-cccf-4dc3-ba15-4e075155110f
select
    id::text,
    owner_id,
    source_image_id::text,
    scene_id,
    scene_type,
    scene_name,
    user_prompt,
    model,
    status,
    result_payload,
    coalesce(error_message, ''),
    process_time_ms,
    created_at,
    updated_at
from jobs
where id = $1::uuid
  and owner_id = $2::text;
`

const QSelectJobStatusForOwner = `--sql c34162b0-4d43-4158-b948-719fa12c8aaa
select status
from jobs
where id = $1::uuid
  and owner_id = $2::text;
`

// QCompleteJob and QFailJob only move jobs that are still processing.
const QCompleteJob = `--sql 00554d57-d4f9-41aa-bc47-51db84589d5b
update jobs
set status = 'completed',
    result_payload = $2::jsonb,
    process_time_ms = $3::bigint,
    error_message = null,
    updated_at = now()
where id = $1::uuid
  and status = 'processing';
`

const QFailJob = `--sql cc7b0b98-a370-4937-a0d6-27f6418324be
update jobs
set status = 'failed',
    error_message = $2::text,
    updated_at = now()
where id = $1::uuid
  and status = 'processing';
`

const QSoftDeleteJob = `--sql adbb8cc6-9d92-4383-8db6-01afc2cad5ac
update jobs
set status = 'deleted',
    updated_at = now()
where id = $1::uuid
  and owner_id = $2::text
  and status in ('completed', 'failed');
`

const QRestoreJob = `--sql daec1553-6ed4-42f9-9b9a-2e520cdebc35
update jobs
set status = case when result_payload is not null then 'completed' else 'failed' end,
    updated_at = now()
where id = $1::uuid
  and owner_id = $2::text
  and status = 'deleted'
returning status;
`

const QListJobsByOwner = `--sql 058377ee-a222-4d91-8686-127b697c0b25
select
    id::text,
    scene_id,
    scene_type,
    scene_name,
    status,
    coalesce(jsonb_array_length(result_payload->'images'), 0),
    process_time_ms,
    coalesce(error_message, ''),
    created_at,
    updated_at,
    count(*) over ()
from jobs
where owner_id = $1::text
  and (status = 'deleted') = $2::boolean
order by created_at desc
limit $3::int offset $4::int;
`

const QFailStaleJobs = `--sql 9ea70cf1-2456-4c2b-b122-27f2320b7afc
update jobs
set status = 'failed',
    error_message = $2::text,
    updated_at = now()
where status = 'processing'
  and created_at < now() - make_interval(secs => $1::double precision)
returning id::text;
`
